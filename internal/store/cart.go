package store

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const cartLineSelect = `
SELECT c.id,
       c.user_id,
       c.film_id,
       COALESCE(f.title, ''),
       c.festival_category_fee_id,
       c.product_id,
       c.fee_in_currency,
       c.user_currency_id,
       c.exch_rate,
       fcf.id,
       fcf.festival_category_id,
       COALESCE(fc.name, ''),
       fc.festival_id,
       COALESCE(fe.name, ''),
       COALESCE(fe.logo_url, ''),
       fcf.standard_fee,
       fcf.gold_fee,
       fcf.enabled,
       fdd.id,
       COALESCE(fdd.name, ''),
       fdd.date,
       fdd.festival_date_id
FROM cart c
LEFT JOIN films f ON f.id = c.film_id
LEFT JOIN festival_category_fees fcf ON fcf.id = c.festival_category_fee_id
LEFT JOIN festival_categories fc ON fc.id = fcf.festival_category_id
LEFT JOIN festivals fe ON fe.id = fc.festival_id
LEFT JOIN festival_date_deadlines fdd ON fdd.id = fcf.festival_date_deadline_id`

// ListCartLines returns the user's cart lines in insertion order with their
// fee schedule, category, festival and deadline joined in.
func (q *Queries) ListCartLines(ctx context.Context, userID int64) ([]CartLine, error) {
	rows, err := q.db.Query(ctx, cartLineSelect+` WHERE c.user_id = $1 ORDER BY c.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []CartLine
	for rows.Next() {
		var (
			line        CartLine
			feeID       *int64
			categoryID  *int64
			festivalID  *int64
			standardFee decimal.NullDecimal
			enabled     *bool
			deadlineID  *int64
			seasonID    *int64
			deadline    *time.Time
			fee         FeeSchedule
		)
		if err := rows.Scan(
			&line.ID,
			&line.UserID,
			&line.FilmID,
			&line.FilmTitle,
			&line.FeeScheduleID,
			&line.ProductID,
			&line.FeeInCurrency,
			&line.UserCurrencyID,
			&line.ExchRate,
			&feeID,
			&categoryID,
			&fee.CategoryName,
			&festivalID,
			&fee.FestivalName,
			&fee.FestivalLogoURL,
			&standardFee,
			&fee.GoldFee,
			&enabled,
			&deadlineID,
			&fee.DeadlineName,
			&deadline,
			&seasonID,
		); err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		if feeID != nil && deadlineID != nil && seasonID != nil && deadline != nil {
			fee.ID = *feeID
			fee.CategoryID = deref(categoryID)
			fee.FestivalID = deref(festivalID)
			fee.StandardFee = standardFee.Decimal
			fee.Enabled = enabled != nil && *enabled
			fee.DeadlineID = *deadlineID
			fee.DeadlineDate = *deadline
			fee.SeasonID = *seasonID
			line.Fee = &fee
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// UpdateCartLine persists a repriced line.
func (q *Queries) UpdateCartLine(ctx context.Context, arg CartLineUpdate) error {
	tag, err := q.db.Exec(ctx, `
UPDATE cart
SET festival_category_fee_id = COALESCE($2, festival_category_fee_id),
    fee_in_currency = $3,
    user_currency_id = $4,
    exch_rate = $5
WHERE id = $1`, arg.ID, arg.FeeScheduleID, arg.FeeInCurrency, arg.UserCurrencyID, arg.ExchRate)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCartLine removes a line by id.
func (q *Queries) DeleteCartLine(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, `DELETE FROM cart WHERE id = $1`, id)
	return err
}

// DeleteUserCartLine removes a line only when it belongs to userID.
func (q *Queries) DeleteUserCartLine(ctx context.Context, userID, id int64) (bool, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM cart WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ClearCart removes every line owned by userID.
func (q *Queries) ClearCart(ctx context.Context, userID int64) (int64, error) {
	tag, err := q.db.Exec(ctx, `DELETE FROM cart WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InsertCartLine creates a cart line and returns its id.
func (q *Queries) InsertCartLine(ctx context.Context, arg NewCartLine) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
INSERT INTO cart (user_id, film_id, festival_category_fee_id, product_id, fee_in_currency, user_currency_id, exch_rate)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`,
		arg.UserID, arg.FilmID, arg.FeeScheduleID, arg.ProductID, arg.FeeInCurrency, arg.UserCurrencyID, arg.ExchRate,
	).Scan(&id)
	return id, err
}

// CartHasFilmEntry reports whether the user already has filmID in any of the
// given fee schedules.
func (q *Queries) CartHasFilmEntry(ctx context.Context, userID, filmID int64, feeScheduleIDs []int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
SELECT EXISTS (
    SELECT 1 FROM cart
    WHERE user_id = $1 AND film_id = $2 AND festival_category_fee_id = ANY($3)
)`, userID, filmID, feeScheduleIDs).Scan(&exists)
	return exists, err
}

// FindMembershipLine returns the id of the user's membership line, if any.
func (q *Queries) FindMembershipLine(ctx context.Context, userID int64) (int64, error) {
	var id int64
	err := q.db.QueryRow(ctx, `
SELECT id FROM cart WHERE user_id = $1 AND product_id IS NOT NULL ORDER BY id LIMIT 1`, userID).Scan(&id)
	if err != nil {
		return 0, notFound(err)
	}
	return id, nil
}

func deref(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
