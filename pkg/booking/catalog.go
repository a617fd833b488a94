package booking

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/aretw0/slotbook/pkg/core"
	"github.com/aretw0/slotbook/pkg/typed"
)

// Catalog manages services and their slots.
type Catalog struct {
	services *typed.Repository[Service]
	bookings *typed.Repository[Booking]
	logger   *slog.Logger
}

func NewCatalog(repo core.Repository, opts ...Option) *Catalog {
	o := buildOptions(opts)
	return &Catalog{
		services: typed.NewRepository[Service](repo, core.CollectionServices),
		bookings: typed.NewRepository[Booking](repo, core.CollectionBookings),
		logger:   o.logger,
	}
}

// ServiceInput carries the fields of a new service.
type ServiceInput struct {
	Name        string      `json:"name"`
	Type        ServiceType `json:"type"`
	Description string      `json:"description"`
	Slots       []string    `json:"slots"`
}

// ServicePatch lists the editable fields; nil means unchanged. Slots are
// edited through AddSlot and RemoveSlot only.
type ServicePatch struct {
	Name        *string      `json:"name"`
	Type        *ServiceType `json:"type"`
	Description *string      `json:"description"`
}

func (c *Catalog) List(ctx context.Context) ([]Service, error) {
	return c.services.List(ctx)
}

func (c *Catalog) Get(ctx context.Context, id core.ID) (Service, error) {
	svc, found, err := c.services.Get(ctx, id)
	if err != nil {
		return Service{}, err
	}
	if !found {
		return Service{}, ErrServiceNotFound
	}
	return svc, nil
}

func (c *Catalog) Create(ctx context.Context, in ServiceInput) (Service, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Service{}, invalidf("service name is required")
	}
	if !in.Type.Valid() {
		return Service{}, invalidf("invalid service type %q", in.Type)
	}
	slots, err := normalizeSlots(in.Slots)
	if err != nil {
		return Service{}, err
	}

	svc, err := c.services.Create(ctx, Service{
		Name:        name,
		Type:        in.Type,
		Description: strings.TrimSpace(in.Description),
		Slots:       slots,
	})
	if err != nil {
		return Service{}, err
	}
	c.logger.Info("service created", "id", svc.ID, "name", svc.Name)
	return svc, nil
}

func (c *Catalog) Update(ctx context.Context, id core.ID, p ServicePatch) (Service, error) {
	patch := core.Record{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return Service{}, invalidf("service name cannot be empty")
		}
		patch["name"] = name
	}
	if p.Type != nil {
		if !p.Type.Valid() {
			return Service{}, invalidf("invalid service type %q", *p.Type)
		}
		patch["type"] = string(*p.Type)
	}
	if p.Description != nil {
		patch["description"] = strings.TrimSpace(*p.Description)
	}

	svc, found, err := c.services.Update(ctx, id, patch)
	if err != nil {
		return Service{}, err
	}
	if !found {
		return Service{}, ErrServiceNotFound
	}
	return svc, nil
}

// Delete removes a service. Services still referenced by a booking are
// refused.
func (c *Catalog) Delete(ctx context.Context, id core.ID) error {
	refs, err := c.bookings.FindMany(ctx, core.Where("serviceId", id))
	if err != nil {
		return err
	}
	if len(refs) > 0 {
		return ErrServiceHasBookings
	}

	found, err := c.services.Delete(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrServiceNotFound
	}
	c.logger.Info("service deleted", "id", id)
	return nil
}

func (c *Catalog) AddSlot(ctx context.Context, id core.ID, slot string) (Service, error) {
	slot = strings.TrimSpace(slot)
	if !ValidSlot(slot) {
		return Service{}, invalidf("invalid slot %q, use YYYY-MM-DD HH:MM", slot)
	}
	svc, err := c.Get(ctx, id)
	if err != nil {
		return Service{}, err
	}
	if slices.Contains(svc.Slots, slot) {
		return Service{}, ErrSlotExists
	}

	slots := append(slices.Clone(svc.Slots), slot)
	slices.Sort(slots)
	return c.setSlots(ctx, id, slots)
}

// RemoveSlot drops a slot unless an active booking holds it. Removing a slot
// the service does not offer is a no-op.
func (c *Catalog) RemoveSlot(ctx context.Context, id core.ID, slot string) (Service, error) {
	slot = strings.TrimSpace(slot)
	if slot == "" {
		return Service{}, invalidf("slot is required")
	}
	svc, err := c.Get(ctx, id)
	if err != nil {
		return Service{}, err
	}

	_, booked, err := c.bookings.FindOne(ctx, core.And(core.Where("serviceId", id), core.Where("slot", slot), active))
	if err != nil {
		return Service{}, err
	}
	if booked {
		return Service{}, ErrSlotBooked
	}

	slots := slices.DeleteFunc(slices.Clone(svc.Slots), func(s string) bool { return s == slot })
	return c.setSlots(ctx, id, slots)
}

// AvailableSlots lists the service's slots not held by an active booking.
func (c *Catalog) AvailableSlots(ctx context.Context, id core.ID) ([]string, error) {
	svc, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	booked, err := c.bookings.FindMany(ctx, core.And(core.Where("serviceId", id), active))
	if err != nil {
		return nil, err
	}

	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b.Slot] = struct{}{}
	}
	free := make([]string, 0, len(svc.Slots))
	for _, s := range svc.Slots {
		if _, ok := taken[s]; !ok {
			free = append(free, s)
		}
	}
	return free, nil
}

func (c *Catalog) setSlots(ctx context.Context, id core.ID, slots []string) (Service, error) {
	list := make([]any, len(slots))
	for i, s := range slots {
		list[i] = s
	}
	svc, found, err := c.services.Update(ctx, id, core.Record{"slots": list})
	if err != nil {
		return Service{}, err
	}
	if !found {
		// deleted between the read and the write
		return Service{}, ErrServiceNotFound
	}
	return svc, nil
}

// active matches bookings that still hold their slot.
func active(r core.Record) bool {
	return r.String("status") != string(StatusCancelled)
}
