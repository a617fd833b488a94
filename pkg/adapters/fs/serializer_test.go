package fs

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/slotbook/pkg/core"
)

func sampleDocument() core.Document {
	return core.Document{
		"services": {
			{"id": int64(1), "name": "Room A", "capacity": int64(8), "price": 12.5,
				"availableSlots": []any{"2025-01-01 10:00", "2025-01-01 11:00"},
				"createdAt":      "2025-01-01T09:00:00.000Z"},
		},
		"users":    {},
		"bookings": {},
	}
}

func TestSerializers_RoundTrip(t *testing.T) {
	for _, s := range []Serializer{JSONSerializer{}, YAMLSerializer{}} {
		t.Run(s.Name(), func(t *testing.T) {
			data, err := s.Encode(sampleDocument())
			require.NoError(t, err)

			doc, err := s.Decode(data)
			require.NoError(t, err)
			assert.Equal(t, sampleDocument(), doc)

			id, ok := doc["services"][0].ID()
			assert.True(t, ok)
			assert.Equal(t, core.ID(1), id)
		})
	}
}

func TestJSONSerializer_Format(t *testing.T) {
	data, err := JSONSerializer{}.Encode(core.Document{"users": {{"id": int64(1)}}})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"users\": [\n    {\n      \"id\": 1\n    }\n  ]\n}\n", string(data))
}

func TestSerializers_RejectMalformed(t *testing.T) {
	cases := map[string]struct {
		s    Serializer
		data string
	}{
		"json syntax":        {JSONSerializer{}, `{"users": [`},
		"json not object":    {JSONSerializer{}, `[1, 2]`},
		"json null":          {JSONSerializer{}, `null`},
		"json scalar coll":   {JSONSerializer{}, `{"users": 3}`},
		"json scalar entry":  {JSONSerializer{}, `{"users": [1]}`},
		"json second value":  {JSONSerializer{}, `{"users":[{"id":1}]} {"users":[{"id":2}],"bookings":[]}`},
		"json trailing junk": {JSONSerializer{}, `{"users": []} x`},
		"yaml scalar coll":   {YAMLSerializer{}, "users: nope\n"},
		"yaml empty":         {YAMLSerializer{}, ""},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tc.s.Decode([]byte(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestSerializers_NullCollection(t *testing.T) {
	doc, err := JSONSerializer{}.Decode([]byte(`{"users": null}`))
	require.NoError(t, err)
	assert.NotNil(t, doc["users"])
	assert.Empty(t, doc["users"])
}

func TestSerializerFor(t *testing.T) {
	assert.Equal(t, "json", SerializerFor("data/db.json").Name())
	assert.Equal(t, "yaml", SerializerFor("data/db.yaml").Name())
	assert.Equal(t, "yaml", SerializerFor("DB.YML").Name())
	assert.Equal(t, "json", SerializerFor("data/db").Name())
}

func TestJSONSerializer_LargeAndFractionalNumbers(t *testing.T) {
	doc, err := JSONSerializer{}.Decode([]byte(`{"x": [{"big": 9007199254740993, "f": 1.5}]}`))
	require.NoError(t, err)
	rec := doc["x"][0]
	assert.Equal(t, int64(9007199254740993), rec["big"])
	assert.Equal(t, 1.5, rec["f"])

	data, err := JSONSerializer{}.Encode(doc)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "9007199254740993"))
}
