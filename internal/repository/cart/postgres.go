package cart

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

const cartColumns = `id::text, shop_id::text, customer_id::text, anonymous_id, currency, state, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrNop(logger)}
}

func (r *postgresRepo) Create(ctx context.Context, in CreateCartInput) (*Record, error) {
	q := `
INSERT INTO carts (shop_id, customer_id, anonymous_id, currency, state)
VALUES ($1, $2, $3, $4, 'active')
RETURNING ` + cartColumns
	cart, err := scanCart(r.pool.QueryRow(ctx, q, in.ShopID, in.CustomerID, in.AnonymousID, in.Currency))
	if err != nil {
		r.logger.Error("create cart", zap.String("shop_id", in.ShopID), zap.Error(err))
		return nil, err
	}
	r.logger.Info("cart created", zap.String("cart_id", cart.ID))
	return &Record{Cart: *cart, DiscountPermyriad: map[string]int{}}, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, shopID, id string) (*Record, error) {
	q := `
SELECT ` + cartColumns + `
FROM carts
WHERE shop_id = $1 AND id::text = $2
`
	return r.fetch(ctx, q, shopID, id)
}

func (r *postgresRepo) GetActiveByCustomer(ctx context.Context, shopID, customerID string) (*Record, error) {
	q := `
SELECT ` + cartColumns + `
FROM carts
WHERE shop_id = $1 AND customer_id::text = $2 AND state = 'active'
ORDER BY updated_at DESC
LIMIT 1
`
	return r.fetch(ctx, q, shopID, customerID)
}

func (r *postgresRepo) GetActiveByAnonymous(ctx context.Context, shopID, anonymousID string) (*Record, error) {
	q := `
SELECT ` + cartColumns + `
FROM carts
WHERE shop_id = $1 AND anonymous_id = $2 AND state = 'active'
ORDER BY updated_at DESC
LIMIT 1
`
	return r.fetch(ctx, q, shopID, anonymousID)
}

func (r *postgresRepo) AssignCustomerToAnonymous(ctx context.Context, shopID, anonymousID, customerID string) (*Record, error) {
	const q = `
UPDATE carts
SET customer_id = $1,
    anonymous_id = NULL,
    updated_at = now()
WHERE shop_id = $2 AND anonymous_id = $3 AND state = 'active'
RETURNING id::text
`
	var cartID string
	if err := r.pool.QueryRow(ctx, q, customerID, shopID, anonymousID).Scan(&cartID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return r.GetByID(ctx, shopID, cartID)
}

// AddLines merges each add onto the existing line for its product or inserts
// one. Inventory is checked against the resulting quantity inside the same
// transaction.
func (r *postgresRepo) AddLines(ctx context.Context, cartID string, adds []LineAdd) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockCart(ctx, tx, cartID); err != nil {
		return err
	}
	for i, add := range adds {
		var lineID string
		var existingQty int
		var unitPrice int64
		err := tx.QueryRow(ctx, `
SELECT id::text, quantity, unit_price_cents
FROM cart_lines
WHERE cart_id = $1 AND merchandise_id = $2
FOR UPDATE
`, cartID, add.Product.ID).Scan(&lineID, &existingQty, &unitPrice)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}
		found := err == nil

		newQty := existingQty + add.Quantity
		ok, err := inStock(ctx, tx, add.Product.ID, newQty)
		if err != nil {
			return err
		}
		if !ok {
			r.logger.Debug("cart add exceeds inventory", zap.String("cart_id", cartID), zap.String("product_id", add.Product.ID))
			return &StockError{Index: i}
		}

		if found {
			_, err = tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1, total_cents = $2
WHERE id = $3
`, newQty, unitPrice*int64(newQty), lineID)
		} else {
			_, err = tx.Exec(ctx, `
INSERT INTO cart_lines (cart_id, merchandise_id, quantity, unit_price_cents, total_cents)
VALUES ($1, $2, $3, $4, $5)
`, cartID, add.Product.ID, add.Quantity, add.Product.PriceCents, add.Product.PriceCents*int64(add.Quantity))
		}
		if err != nil {
			return err
		}
	}

	if err := touch(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// SetLineQuantities applies absolute quantities; zero deletes the line. An
// unknown line is ErrNotFound and rolls back the batch.
func (r *postgresRepo) SetLineQuantities(ctx context.Context, cartID string, changes []LineQuantity) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockCart(ctx, tx, cartID); err != nil {
		return err
	}
	for i, change := range changes {
		var productID string
		err := tx.QueryRow(ctx, `
SELECT merchandise_id::text
FROM cart_lines
WHERE id::text = $1 AND cart_id = $2
FOR UPDATE
`, change.LineID, cartID).Scan(&productID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrNotFound
			}
			return err
		}

		if change.Quantity <= 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE id::text = $1`, change.LineID); err != nil {
				return err
			}
			continue
		}
		ok, err := inStock(ctx, tx, productID, change.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return &StockError{Index: i}
		}
		if _, err := tx.Exec(ctx, `
UPDATE cart_lines
SET quantity = $1, total_cents = unit_price_cents * $1
WHERE id::text = $2
`, change.Quantity, change.LineID); err != nil {
			return err
		}
	}

	if err := touch(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// RemoveLines deletes all lines or none; any unknown id is ErrNotFound.
func (r *postgresRepo) RemoveLines(ctx context.Context, cartID string, lineIDs []string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
DELETE FROM cart_lines
WHERE cart_id = $1 AND id::text = ANY($2)
`, cartID, lineIDs)
	if err != nil {
		return err
	}
	if int(cmd.RowsAffected()) != len(uniq(lineIDs)) {
		return domain.ErrNotFound
	}
	if err := touch(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReplaceDiscountCodes stores codes in order. Unknown or inactive codes are
// kept and reported as not applicable.
func (r *postgresRepo) ReplaceDiscountCodes(ctx context.Context, shopID, cartID string, codes []string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM cart_discount_codes WHERE cart_id = $1`, cartID); err != nil {
		return err
	}
	for i, code := range codes {
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_discount_codes (cart_id, code, applicable, position)
VALUES ($1, $2, EXISTS (SELECT 1 FROM discount_codes WHERE shop_id = $3 AND code = $2 AND active), $4)
`, cartID, code, shopID, i); err != nil {
			return err
		}
	}
	if err := touch(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) FindGiftCard(ctx context.Context, shopID, code string) (*GiftCard, error) {
	var g GiftCard
	err := r.pool.QueryRow(ctx, `
SELECT id::text, code, balance_cents, currency
FROM gift_cards
WHERE shop_id = $1 AND upper(code) = upper($2)
`, shopID, code).Scan(&g.ID, &g.Code, &g.BalanceCents, &g.Currency)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &g, nil
}

func (r *postgresRepo) AttachGiftCards(ctx context.Context, cartID string, giftCardIDs []string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := lockCart(ctx, tx, cartID); err != nil {
		return err
	}
	for _, id := range giftCardIDs {
		if _, err := tx.Exec(ctx, `
INSERT INTO cart_gift_cards (cart_id, gift_card_id)
VALUES ($1, $2)
ON CONFLICT (cart_id, gift_card_id) DO NOTHING
`, cartID, id); err != nil {
			return err
		}
	}
	if err := touch(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) DetachGiftCards(ctx context.Context, cartID string, ids []string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	cmd, err := tx.Exec(ctx, `
DELETE FROM cart_gift_cards
WHERE cart_id = $1 AND gift_card_id::text = ANY($2)
`, cartID, ids)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	if err := touch(ctx, tx, cartID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *postgresRepo) fetch(ctx context.Context, cartQuery string, args ...any) (*Record, error) {
	cart, err := scanCart(r.pool.QueryRow(ctx, cartQuery, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("fetch cart", zap.Error(err))
		return nil, err
	}
	rec := &Record{Cart: *cart, DiscountPermyriad: map[string]int{}}

	if err := r.loadLines(ctx, rec); err != nil {
		return nil, err
	}
	if err := r.loadDiscounts(ctx, rec); err != nil {
		return nil, err
	}
	if err := r.loadGiftCards(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *postgresRepo) loadLines(ctx context.Context, rec *Record) error {
	const q = `
SELECT l.id::text, l.merchandise_id::text, l.quantity, l.unit_price_cents, l.total_cents, l.created_at,
       p.title, p.handle, p.sku, COALESCE(p.images->>0, ''), p.price_cents, p.currency
FROM cart_lines l
JOIN products p ON p.id = l.merchandise_id
WHERE l.cart_id = $1
ORDER BY l.created_at ASC, l.id ASC
`
	rows, err := r.pool.Query(ctx, q, rec.Cart.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	currency := rec.Cart.Currency
	rec.Cart.Lines = []domain.CartLine{}
	for rows.Next() {
		var line domain.CartLine
		var unit, total, price int64
		var productCurrency string
		if err := rows.Scan(
			&line.ID,
			&line.MerchandiseID,
			&line.Quantity,
			&unit,
			&total,
			&line.CreatedAt,
			&line.Merchandise.Title,
			&line.Merchandise.ProductHandle,
			&line.Merchandise.SKU,
			&line.Merchandise.Image,
			&price,
			&productCurrency,
		); err != nil {
			return err
		}
		line.Merchandise.ID = line.MerchandiseID
		line.Merchandise.Price = domain.MoneyFromCents(price, productCurrency)
		line.Cost = domain.CartLineCost{
			AmountPerQuantity: domain.MoneyFromCents(unit, currency),
			TotalAmount:       domain.MoneyFromCents(total, currency),
		}
		rec.Cart.Lines = append(rec.Cart.Lines, line)
	}
	return rows.Err()
}

func (r *postgresRepo) loadDiscounts(ctx context.Context, rec *Record) error {
	const q = `
SELECT cdc.code, (dc.id IS NOT NULL), COALESCE(dc.permyriad, 0)
FROM cart_discount_codes cdc
JOIN carts c ON c.id = cdc.cart_id
LEFT JOIN discount_codes dc ON dc.shop_id = c.shop_id AND dc.code = cdc.code AND dc.active
WHERE cdc.cart_id = $1
ORDER BY cdc.position ASC
`
	rows, err := r.pool.Query(ctx, q, rec.Cart.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	rec.Cart.DiscountCodes = []domain.DiscountCode{}
	for rows.Next() {
		var dc domain.DiscountCode
		var permyriad int
		if err := rows.Scan(&dc.Code, &dc.Applicable, &permyriad); err != nil {
			return err
		}
		if dc.Applicable {
			rec.DiscountPermyriad[dc.Code] = permyriad
		}
		rec.Cart.DiscountCodes = append(rec.Cart.DiscountCodes, dc)
	}
	return rows.Err()
}

func (r *postgresRepo) loadGiftCards(ctx context.Context, rec *Record) error {
	const q = `
SELECT g.id::text, g.code, g.balance_cents, g.currency
FROM cart_gift_cards cg
JOIN gift_cards g ON g.id = cg.gift_card_id
WHERE cg.cart_id = $1
ORDER BY cg.created_at ASC, g.id ASC
`
	rows, err := r.pool.Query(ctx, q, rec.Cart.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	rec.GiftCards = nil
	for rows.Next() {
		var g GiftCard
		if err := rows.Scan(&g.ID, &g.Code, &g.BalanceCents, &g.Currency); err != nil {
			return err
		}
		rec.GiftCards = append(rec.GiftCards, g)
	}
	return rows.Err()
}

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var cart domain.Cart
	if err := row.Scan(
		&cart.ID,
		&cart.ShopID,
		&cart.CustomerID,
		&cart.AnonymousID,
		&cart.Currency,
		&cart.State,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &cart, nil
}

// lockCart serializes concurrent mutations of one cart.
func lockCart(ctx context.Context, tx pgx.Tx, cartID string) error {
	var id string
	err := tx.QueryRow(ctx, `SELECT id::text FROM carts WHERE id::text = $1 FOR UPDATE`, cartID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	return err
}

// inStock reports whether the product's tracked inventory covers quantity.
// Untracked products always do.
func inStock(ctx context.Context, tx pgx.Tx, productID string, quantity int) (bool, error) {
	var inventory *int
	err := tx.QueryRow(ctx, `SELECT inventory_quantity FROM products WHERE id::text = $1`, productID).Scan(&inventory)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, domain.ErrNotFound
		}
		return false, err
	}
	return inventory == nil || *inventory >= quantity, nil
}

func touch(ctx context.Context, tx pgx.Tx, cartID string) error {
	_, err := tx.Exec(ctx, `UPDATE carts SET updated_at = now() WHERE id = $1`, cartID)
	return err
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
