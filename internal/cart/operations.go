package cart

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/noah-isme/festbook-cart/internal/membership"
	"github.com/noah-isme/festbook-cart/internal/money"
	"github.com/noah-isme/festbook-cart/internal/store"
)

// AddFilmInput enters one film into one or more festival categories.
type AddFilmInput struct {
	FilmID         int64   `json:"filmId" validate:"required,gt=0"`
	FeeScheduleIDs []int64 `json:"festivalCategoryFeeIds" validate:"required,min=1,dive,gt=0"`
	// IncludeGoldMembership also adds the monthly gold plan when the user
	// is not a member and has no plan in the cart yet.
	IncludeGoldMembership bool `json:"includeGoldMembership"`
}

// AddFilm enters a film into a single category.
func (s *Service) AddFilm(ctx context.Context, userID, filmID, feeScheduleID int64) (int64, error) {
	ids, err := s.AddFilmToCategories(ctx, userID, AddFilmInput{FilmID: filmID, FeeScheduleIDs: []int64{feeScheduleID}})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// AddFilmToCategories inserts one line per requested category, priced at
// the tier the user currently qualifies for. It returns the new line ids.
func (s *Service) AddFilmToCategories(ctx context.Context, userID int64, in AddFilmInput) ([]int64, error) {
	feeIDs := uniqueIDs(in.FeeScheduleIDs)
	if in.FilmID <= 0 || len(feeIDs) == 0 {
		return nil, ErrInvalidInput
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	var added []int64
	err = s.inTx(ctx, func(uow UnitOfWork) error {
		exists, err := uow.FilmExists(ctx, in.FilmID)
		if err != nil {
			return fmt.Errorf("film lookup: %w", err)
		}
		if !exists {
			return ErrFilmNotFound
		}
		dup, err := uow.CartHasFilmEntry(ctx, user.ID, in.FilmID, feeIDs)
		if err != nil {
			return fmt.Errorf("duplicate check: %w", err)
		}
		if dup {
			return ErrAlreadyInCart
		}
		schedules, err := uow.ListEnabledFeeSchedules(ctx, feeIDs)
		if err != nil {
			return fmt.Errorf("fee schedules: %w", err)
		}
		if len(schedules) != len(feeIDs) {
			return ErrInvalidInput
		}
		gold, err := s.Engine.Membership.IsGold(ctx, uow, user.ID, s.now())
		if err != nil {
			return err
		}

		filmID := in.FilmID
		for _, fs := range schedules {
			quote, err := s.Engine.Quoter.Visible(ctx, fs.Tier(gold), user.Currency, fs.SeasonCurrency)
			if err != nil {
				return fmt.Errorf("price fee schedule %d: %w", fs.ID, err)
			}
			feeID := fs.ID
			id, err := uow.InsertCartLine(ctx, store.NewCartLine{
				UserID:         user.ID,
				FilmID:         &filmID,
				FeeScheduleID:  &feeID,
				FeeInCurrency:  quote.Money.Amount,
				UserCurrencyID: user.CurrencyID,
				ExchRate:       quote.Rate,
			})
			if err != nil {
				return fmt.Errorf("insert line: %w", err)
			}
			added = append(added, id)
		}

		if !in.IncludeGoldMembership || gold {
			return nil
		}
		if _, err := uow.FindMembershipLine(ctx, user.ID); err == nil {
			return nil
		} else if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("membership line lookup: %w", err)
		}
		id, err := s.insertProduct(ctx, uow, user, membership.MonthlyGold)
		if err != nil {
			return err
		}
		added = append(added, id)
		return nil
	})
	if err != nil {
		return nil, s.opError(ctx, user.ID, "add film", err)
	}
	s.logger(ctx).Info().Int64("user_id", user.ID).Int64("film_id", in.FilmID).Int("lines", len(added)).Msg("film added to cart")
	return added, nil
}

// AddMembership puts productID in the cart, replacing any plan already there.
func (s *Service) AddMembership(ctx context.Context, userID, productID int64) (int64, error) {
	product, ok := membership.Lookup(productID)
	if !ok {
		return 0, ErrProductNotFound
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.inTx(ctx, func(uow UnitOfWork) error {
		existing, err := uow.FindMembershipLine(ctx, user.ID)
		switch {
		case err == nil:
			if _, err := uow.DeleteUserCartLine(ctx, user.ID, existing); err != nil {
				return fmt.Errorf("replace membership line: %w", err)
			}
		case !errors.Is(err, store.ErrNotFound):
			return fmt.Errorf("membership line lookup: %w", err)
		}
		id, err = s.insertProduct(ctx, uow, user, product)
		return err
	})
	if err != nil {
		return 0, s.opError(ctx, user.ID, "add membership", err)
	}
	return id, nil
}

// RemoveItem deletes one of the user's cart lines.
func (s *Service) RemoveItem(ctx context.Context, userID, cartID int64) error {
	if userID <= 0 {
		return ErrUserNotFound
	}
	err := s.inTx(ctx, func(uow UnitOfWork) error {
		ok, err := uow.DeleteUserCartLine(ctx, userID, cartID)
		if err != nil {
			return fmt.Errorf("delete line: %w", err)
		}
		if !ok {
			return ErrItemNotInCart
		}
		return nil
	})
	if err != nil {
		return s.opError(ctx, userID, "remove item", err)
	}
	return nil
}

// Clear empties the user's cart and returns how many lines were removed.
func (s *Service) Clear(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, ErrUserNotFound
	}
	var n int64
	err := s.inTx(ctx, func(uow UnitOfWork) error {
		var err error
		n, err = uow.ClearCart(ctx, userID)
		return err
	})
	if err != nil {
		return 0, s.opError(ctx, userID, "clear", err)
	}
	return n, nil
}

func (s *Service) insertProduct(ctx context.Context, uow UnitOfWork, user store.User, product membership.Product) (int64, error) {
	quote, err := s.Engine.Quoter.Visible(ctx, product.Fee, user.Currency, money.Currency{Code: product.FeeCurrency})
	if err != nil {
		return 0, fmt.Errorf("price product %d: %w", product.ID, err)
	}
	productID := product.ID
	id, err := uow.InsertCartLine(ctx, store.NewCartLine{
		UserID:         user.ID,
		ProductID:      &productID,
		FeeInCurrency:  quote.Money.Amount,
		UserCurrencyID: user.CurrencyID,
		ExchRate:       quote.Rate,
	})
	if err != nil {
		return 0, fmt.Errorf("insert product line: %w", err)
	}
	return id, nil
}

// opError passes caller-facing sentinels through and wraps everything else.
func (s *Service) opError(ctx context.Context, userID int64, stage string, err error) error {
	if isClientError(err) {
		return err
	}
	return s.fail(ctx, userID, stage, err)
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
