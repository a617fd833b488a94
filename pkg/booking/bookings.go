package booking

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"github.com/aretw0/slotbook/pkg/core"
	"github.com/aretw0/slotbook/pkg/typed"
)

// Bookings manages reservations.
type Bookings struct {
	bookings *typed.Repository[Booking]
	services *typed.Repository[Service]
	users    *typed.Repository[userRecord]
	logger   *slog.Logger
}

func NewBookings(repo core.Repository, opts ...Option) *Bookings {
	o := buildOptions(opts)
	return &Bookings{
		bookings: typed.NewRepository[Booking](repo, core.CollectionBookings),
		services: typed.NewRepository[Service](repo, core.CollectionServices),
		users:    typed.NewRepository[userRecord](repo, core.CollectionUsers),
		logger:   o.logger,
	}
}

// Create books slot of a service for a user. The slot must be offered by
// the service, free, and the user must not hold another booking at the same
// time. Both conflict checks and the insert run under a single store lock.
func (b *Bookings) Create(ctx context.Context, userID, serviceID core.ID, slot string) (Booking, error) {
	slot = strings.TrimSpace(slot)
	if serviceID < 1 {
		return Booking{}, invalidf("invalid service id")
	}
	if !ValidSlot(slot) {
		return Booking{}, invalidf("invalid slot %q, use YYYY-MM-DD HH:MM", slot)
	}

	svc, found, err := b.services.Get(ctx, serviceID)
	if err != nil {
		return Booking{}, err
	}
	if !found {
		return Booking{}, ErrServiceNotFound
	}
	if !slices.Contains(svc.Slots, slot) {
		return Booking{}, ErrSlotUnknown
	}

	slotTaken := core.Where("serviceId", serviceID)
	userBusy := core.Where("userId", userID)
	conflict := core.And(active, core.Where("slot", slot), func(r core.Record) bool {
		return slotTaken(r) || userBusy(r)
	})

	created, ok, err := b.bookings.CreateIfAbsent(ctx, conflict, Booking{
		UserID:    userID,
		ServiceID: serviceID,
		Slot:      slot,
		Status:    StatusConfirmed,
	})
	if err != nil {
		return Booking{}, err
	}
	if !ok {
		if created.ServiceID == serviceID {
			return Booking{}, ErrSlotBooked
		}
		return Booking{}, ErrUserSlotConflict
	}

	b.logger.Info("booking created", "id", created.ID, "user", userID, "service", serviceID, "slot", slot)
	return created, nil
}

func (b *Bookings) Get(ctx context.Context, id core.ID) (Booking, error) {
	bk, found, err := b.bookings.Get(ctx, id)
	if err != nil {
		return Booking{}, err
	}
	if !found {
		return Booking{}, ErrBookingNotFound
	}
	return bk, nil
}

// ForUser lists a user's bookings with a summary of each service.
func (b *Bookings) ForUser(ctx context.Context, userID core.ID) ([]Booking, error) {
	list, err := b.bookings.FindMany(ctx, core.Where("userId", userID))
	if err != nil {
		return nil, err
	}
	services, err := b.serviceIndex(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Service = services[list[i].ServiceID]
	}
	return list, nil
}

func (b *Bookings) ForService(ctx context.Context, serviceID core.ID) ([]Booking, error) {
	return b.bookings.FindMany(ctx, core.Where("serviceId", serviceID))
}

// All lists every booking with service and user summaries. References to
// deleted services or users are left empty.
func (b *Bookings) All(ctx context.Context) ([]Booking, error) {
	list, err := b.bookings.List(ctx)
	if err != nil {
		return nil, err
	}
	services, err := b.serviceIndex(ctx)
	if err != nil {
		return nil, err
	}
	users, err := b.users.List(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[core.ID]*UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = &UserSummary{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName}
	}

	for i := range list {
		list[i].Service = services[list[i].ServiceID]
		list[i].User = byID[list[i].UserID]
	}
	return list, nil
}

// Cancel removes a booking. Only its owner or an admin may do so.
func (b *Bookings) Cancel(ctx context.Context, bookingID, userID core.ID, isAdmin bool) error {
	bk, err := b.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if !isAdmin && bk.UserID != userID {
		return ErrForbidden
	}

	found, err := b.bookings.Delete(ctx, bookingID)
	if err != nil {
		return err
	}
	if !found {
		return ErrBookingNotFound
	}
	b.logger.Info("booking cancelled", "id", bookingID, "by", userID)
	return nil
}

func (b *Bookings) UpdateStatus(ctx context.Context, id core.ID, status Status) (Booking, error) {
	if !status.Valid() {
		return Booking{}, invalidf("invalid status %q", status)
	}
	bk, found, err := b.bookings.Update(ctx, id, core.Record{"status": string(status)})
	if err != nil {
		return Booking{}, err
	}
	if !found {
		return Booking{}, ErrBookingNotFound
	}
	return bk, nil
}

func (b *Bookings) serviceIndex(ctx context.Context) (map[core.ID]*ServiceSummary, error) {
	services, err := b.services.List(ctx)
	if err != nil {
		return nil, err
	}
	idx := make(map[core.ID]*ServiceSummary, len(services))
	for _, s := range services {
		idx[s.ID] = &ServiceSummary{ID: s.ID, Name: s.Name, Type: s.Type}
	}
	return idx, nil
}
