package service

import (
	"context"
	"errors"
	"strings"

	"shuttle-track/internal/domain/booking"
	"shuttle-track/internal/ports"
)

// Snapshot assembles the public tracking view for one booking ref. The
// persisted booking row is the base; the live session, when present,
// overrides position and ETA so the page shows the freshest fix even if the
// last DB mirror write lost a race.
func (service *trackingService) Snapshot(ctx context.Context, trackingRef string) (ports.TrackingSnapshot, error) {
	ref := strings.TrimSpace(trackingRef)
	if ref == "" {
		return ports.TrackingSnapshot{}, errors.New("tracking ref is required")
	}

	var bk *booking.Booking
	var drv *booking.Driver

	err := service.uow.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		bk, err = service.bookings.GetByRef(ctx, ref)
		if err != nil {
			return err
		}
		if bk.AssignedDriverID != nil {
			// driver lookup is display-only; a missing row must not 404 the page
			if d, err := service.drivers.GetByID(ctx, *bk.AssignedDriverID); err == nil {
				drv = d
			}
		}
		return nil
	})
	if err != nil {
		return ports.TrackingSnapshot{}, err
	}

	snap := ports.TrackingSnapshot{
		BookingID:      bk.ID,
		BookingRef:     bk.BookingRef,
		CustomerName:   bk.CustomerName,
		CustomerPhone:  bk.CustomerPhone,
		PickupAddress:  bk.PickupAddress,
		DropoffAddress: bk.DropoffAddress,
		PickupDate:     bk.PickupDate,
		PickupTime:     bk.PickupTime,
		TrackingStatus: bk.TrackingStatus.String(),
		ETAMinutes:     bk.DriverETAMinutes,
		Location:       bk.DriverLocation,
	}
	if drv != nil {
		snap.Driver = &ports.DriverInfo{
			ID:      drv.ID,
			Name:    drv.Name,
			Vehicle: drv.Vehicle,
			Phone:   drv.Phone,
		}
	}

	// live session overrides persisted state while the trip is in flight
	if session, err := service.sessions.GetByBooking(ctx, bk.ID); err == nil {
		if session.LastLocation != nil {
			snap.Location = session.LastLocation
			snap.ETAMinutes = session.ETAMinutes
		}
		started := session.StartedAt
		snap.StartedAt = &started
		if snap.Driver == nil && session.DriverName != "" {
			snap.Driver = &ports.DriverInfo{
				ID:      session.DriverID,
				Name:    session.DriverName,
				Vehicle: session.Vehicle,
				Phone:   session.DriverPhone,
			}
		}
	}

	return snap, nil
}
