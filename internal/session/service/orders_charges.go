package service

import (
	"context"
	"strings"

	"gorm.io/gorm"

	menudomain "github.com/playdenlabs/playden/internal/menu/domain"
	sessiondomain "github.com/playdenlabs/playden/internal/session/domain"
)

func (s *service) AddOrder(ctx context.Context, req sessiondomain.AddOrderRequest) (*sessiondomain.Order, error) {
	sessionID, err := parseID(req.SessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}
	itemID, err := parseID(req.MenuItemID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}
	if req.Quantity <= 0 {
		return nil, sessiondomain.ErrInvalidQuantity
	}

	var order *sessiondomain.Order
	err = s.db.Transaction(func(tx *gorm.DB) error {
		session, err := s.repo.Get(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.State() == sessiondomain.StateEnded {
			return sessiondomain.ErrSessionEnded
		}

		item, err := s.menuRepo.Get(ctx, tx, itemID)
		if err != nil {
			return err
		}
		if !item.Available {
			return menudomain.ErrMenuItemDisabled
		}

		now := s.clock.Now(ctx)
		order = &sessiondomain.Order{
			ID:         s.genID.Generate(),
			SessionID:  session.ID,
			MenuItemID: item.ID,
			Quantity:   req.Quantity,
			UnitPrice:  item.Price,
			CreatedAt:  now,
		}
		if err := s.repo.CreateOrder(ctx, tx, order); err != nil {
			return err
		}

		session.OrdersCost += item.Price * req.Quantity
		session.UpdatedAt = now
		return s.repo.Update(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) RemoveOrder(ctx context.Context, sessionID, orderID string) error {
	sid, err := parseID(sessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return err
	}
	oid, err := parseID(orderID, sessiondomain.ErrOrderNotFound)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		session, err := s.repo.Get(ctx, tx, sid)
		if err != nil {
			return err
		}
		if session.State() == sessiondomain.StateEnded {
			return sessiondomain.ErrSessionEnded
		}

		order, err := s.repo.GetOrder(ctx, tx, oid)
		if err != nil {
			return err
		}
		if order.SessionID != session.ID {
			return sessiondomain.ErrOrderNotFound
		}
		if err := s.repo.DeleteOrder(ctx, tx, order.ID); err != nil {
			return err
		}

		// Clamp at zero to guard against accumulator drift.
		session.OrdersCost -= order.UnitPrice * order.Quantity
		if session.OrdersCost < 0 {
			session.OrdersCost = 0
		}
		session.UpdatedAt = s.clock.Now(ctx)
		return s.repo.Update(ctx, tx, session)
	})
}

func (s *service) AddCharge(ctx context.Context, req sessiondomain.AddChargeRequest) (*sessiondomain.Charge, error) {
	sessionID, err := parseID(req.SessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}
	if req.Amount == 0 {
		return nil, sessiondomain.ErrInvalidAmount
	}

	var charge *sessiondomain.Charge
	err = s.db.Transaction(func(tx *gorm.DB) error {
		session, err := s.repo.Get(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.State() == sessiondomain.StateEnded {
			return sessiondomain.ErrSessionEnded
		}

		now := s.clock.Now(ctx)
		charge = &sessiondomain.Charge{
			ID:        s.genID.Generate(),
			SessionID: session.ID,
			Amount:    req.Amount,
			Reason:    strings.TrimSpace(req.Reason),
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.repo.CreateCharge(ctx, tx, charge); err != nil {
			return err
		}

		session.ExtraCharges += req.Amount
		session.UpdatedAt = now
		return s.repo.Update(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}
	return charge, nil
}

func (s *service) UpdateCharge(ctx context.Context, req sessiondomain.UpdateChargeRequest) (*sessiondomain.Charge, error) {
	sid, err := parseID(req.SessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return nil, err
	}
	cid, err := parseID(req.ChargeID, sessiondomain.ErrChargeNotFound)
	if err != nil {
		return nil, err
	}

	var charge *sessiondomain.Charge
	err = s.db.Transaction(func(tx *gorm.DB) error {
		session, err := s.repo.Get(ctx, tx, sid)
		if err != nil {
			return err
		}
		if session.State() == sessiondomain.StateEnded {
			return sessiondomain.ErrSessionEnded
		}

		charge, err = s.repo.GetCharge(ctx, tx, cid)
		if err != nil {
			return err
		}
		if charge.SessionID != session.ID {
			return sessiondomain.ErrChargeNotFound
		}

		now := s.clock.Now(ctx)
		if req.Amount != nil {
			session.ExtraCharges += *req.Amount - charge.Amount
			if session.ExtraCharges < 0 {
				session.ExtraCharges = 0
			}
			charge.Amount = *req.Amount
		}
		if req.Reason != nil {
			charge.Reason = strings.TrimSpace(*req.Reason)
		}
		charge.UpdatedAt = now
		if err := s.repo.UpdateCharge(ctx, tx, charge); err != nil {
			return err
		}
		session.UpdatedAt = now
		return s.repo.Update(ctx, tx, session)
	})
	if err != nil {
		return nil, err
	}
	return charge, nil
}

func (s *service) DeleteCharge(ctx context.Context, sessionID, chargeID string) error {
	sid, err := parseID(sessionID, sessiondomain.ErrSessionNotFound)
	if err != nil {
		return err
	}
	cid, err := parseID(chargeID, sessiondomain.ErrChargeNotFound)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		session, err := s.repo.Get(ctx, tx, sid)
		if err != nil {
			return err
		}
		if session.State() == sessiondomain.StateEnded {
			return sessiondomain.ErrSessionEnded
		}

		charge, err := s.repo.GetCharge(ctx, tx, cid)
		if err != nil {
			return err
		}
		if charge.SessionID != session.ID {
			return sessiondomain.ErrChargeNotFound
		}
		if err := s.repo.DeleteCharge(ctx, tx, charge.ID); err != nil {
			return err
		}

		session.ExtraCharges -= charge.Amount
		if session.ExtraCharges < 0 {
			session.ExtraCharges = 0
		}
		session.UpdatedAt = s.clock.Now(ctx)
		return s.repo.Update(ctx, tx, session)
	})
}
