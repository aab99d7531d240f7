package store

import (
	"context"
	"fmt"
	"time"
)

// GetUser loads a user with their currency.
func (q *Queries) GetUser(ctx context.Context, userID int64) (User, error) {
	var u User
	err := q.db.QueryRow(ctx, `
SELECT u.id, u.first_name, u.email, u.phone_no, u.currency_id, c.id, COALESCE(c.code, ''), c.symbol
FROM users u
JOIN currencies c ON c.id = u.currency_id
WHERE u.id = $1`, userID).Scan(
		&u.ID, &u.FirstName, &u.Email, &u.PhoneNo, &u.CurrencyID,
		&u.Currency.ID, &u.Currency.Code, &u.Currency.Symbol,
	)
	if err != nil {
		return User{}, notFound(err)
	}
	return u, nil
}

// GetSeason loads a festival season with its pricing currency.
func (q *Queries) GetSeason(ctx context.Context, seasonID int64) (Season, error) {
	var s Season
	err := q.db.QueryRow(ctx, `
SELECT fd.id, fd.currency_id, c.id, COALESCE(c.code, ''), c.symbol
FROM festival_dates fd
JOIN currencies c ON c.id = fd.currency_id
WHERE fd.id = $1`, seasonID).Scan(&s.ID, &s.CurrencyID, &s.Currency.ID, &s.Currency.Code, &s.Currency.Symbol)
	if err != nil {
		return Season{}, notFound(err)
	}
	return s, nil
}

// NextFeeSchedule finds the chronologically next deadline after deadlineID in
// the same season that has an enabled fee schedule for categoryID.
func (q *Queries) NextFeeSchedule(ctx context.Context, deadlineID, categoryID int64) (NextTier, error) {
	var n NextTier
	err := q.db.QueryRow(ctx, `
SELECT next.id, COALESCE(next.name, ''), next.date, fcf.id, fcf.standard_fee, fcf.gold_fee
FROM festival_date_deadlines cur
JOIN festival_date_deadlines next
  ON next.festival_date_id = cur.festival_date_id AND next.date > cur.date
JOIN festival_category_fees fcf
  ON fcf.festival_date_deadline_id = next.id
 AND fcf.festival_category_id = $2
 AND fcf.enabled = TRUE
WHERE cur.id = $1
ORDER BY next.date ASC, next.id ASC
LIMIT 1`, deadlineID, categoryID).Scan(
		&n.DeadlineID, &n.DeadlineName, &n.DeadlineDate, &n.FeeScheduleID, &n.StandardFee, &n.GoldFee,
	)
	if err != nil {
		return NextTier{}, notFound(err)
	}
	return n, nil
}

// ListEnabledFeeSchedules returns the enabled fee schedules among ids joined
// with their season currency.
func (q *Queries) ListEnabledFeeSchedules(ctx context.Context, ids []int64) ([]PricedFeeSchedule, error) {
	rows, err := q.db.Query(ctx, `
SELECT fcf.id, fcf.festival_category_id, fc.name, fc.festival_id, fe.name, fe.logo_url,
       fcf.standard_fee, fcf.gold_fee, fcf.enabled,
       fdd.id, COALESCE(fdd.name, ''), fdd.date, fdd.festival_date_id,
       c.id, COALESCE(c.code, ''), c.symbol
FROM festival_category_fees fcf
JOIN festival_categories fc ON fc.id = fcf.festival_category_id
JOIN festivals fe ON fe.id = fc.festival_id
JOIN festival_date_deadlines fdd ON fdd.id = fcf.festival_date_deadline_id
JOIN festival_dates fd ON fd.id = fdd.festival_date_id
JOIN currencies c ON c.id = fd.currency_id
WHERE fcf.id = ANY($1) AND fcf.enabled = TRUE
ORDER BY fcf.id`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PricedFeeSchedule
	for rows.Next() {
		var p PricedFeeSchedule
		if err := rows.Scan(
			&p.ID, &p.CategoryID, &p.CategoryName, &p.FestivalID, &p.FestivalName, &p.FestivalLogoURL,
			&p.StandardFee, &p.GoldFee, &p.Enabled,
			&p.DeadlineID, &p.DeadlineName, &p.DeadlineDate, &p.SeasonID,
			&p.SeasonCurrency.ID, &p.SeasonCurrency.Code, &p.SeasonCurrency.Symbol,
		); err != nil {
			return nil, fmt.Errorf("scan fee schedule: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FilmExists reports whether the film exists.
func (q *Queries) FilmExists(ctx context.Context, filmID int64) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM films WHERE id = $1)`, filmID).Scan(&exists)
	return exists, err
}

// HasActiveSubscription reports whether the user holds an active subscription
// whose validity window contains at.
func (q *Queries) HasActiveSubscription(ctx context.Context, userID int64, at time.Time) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, `
SELECT EXISTS (
    SELECT 1 FROM subscriptions
    WHERE user_id = $1 AND is_active = TRUE AND $2 BETWEEN from_date AND to_date
)`, userID, at).Scan(&exists)
	return exists, err
}
