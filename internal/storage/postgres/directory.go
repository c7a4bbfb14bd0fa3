package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

// Directory даёт доступ к таблицам пользователей, каталога и адресов.
// Реализует CatalogResolver и UserOrderIndex.
type Directory struct {
	db *sql.DB
}

// NewDirectory создаёт PostgreSQL-справочник.
func NewDirectory(store *Store) *Directory {
	return &Directory{db: store.DB()}
}

// ExistingProducts возвращает те id из запроса, которые есть в каталоге.
func (d *Directory) ExistingProducts(ctx context.Context, ids []string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	normalized := make([]string, 0, len(ids))
	for _, id := range ids {
		normalized = append(normalized, strings.TrimSpace(id))
	}

	rows, err := d.db.QueryContext(ctx, `SELECT id FROM products WHERE id = ANY($1)`, normalized)
	if err != nil {
		return nil, domain.PersistenceError("select products", err)
	}
	defer rows.Close()

	found := make([]string, 0, len(normalized))
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, domain.PersistenceError("scan product id", err)
		}
		found = append(found, id)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.PersistenceError("iterate products", err)
	}

	return found, nil
}

// AppendOrder дописывает заказ в список пользователя и возвращает обновлённый профиль.
func (d *Directory) AppendOrder(ctx context.Context, userID, orderID string) (domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, domain.PersistenceError("begin append order", err)
	}
	defer rollback(tx)

	var user domain.User
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, email, role FROM users WHERE id = $1 FOR UPDATE
	`, userID).Scan(&user.ID, &user.Name, &user.Email, &user.Role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.ErrUserNotFound
		}
		return domain.User{}, domain.PersistenceError("lock user", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_orders (user_id, order_id) VALUES ($1, $2)
	`, userID, orderID); err != nil {
		return domain.User{}, domain.PersistenceError("append user order", err)
	}

	orders, err := queryUserOrders(ctx, tx, []string{userID})
	if err != nil {
		return domain.User{}, err
	}
	user.Orders = orders[userID]

	if err := tx.Commit(); err != nil {
		return domain.User{}, domain.PersistenceError("commit append order", err)
	}

	return user, nil
}

// UpsertUser сохраняет профиль пользователя без списка заказов.
func (d *Directory) UpsertUser(ctx context.Context, user domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := d.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, role) VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, email = EXCLUDED.email, role = EXCLUDED.role
	`, user.ID, user.Name, user.Email, user.Role); err != nil {
		return domain.PersistenceError("upsert user", err)
	}
	return nil
}

// UpsertProduct сохраняет запись каталога.
func (d *Directory) UpsertProduct(ctx context.Context, product domain.Product) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := d.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, thumbnail) VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, description = EXCLUDED.description,
		    price = EXCLUDED.price, thumbnail = EXCLUDED.thumbnail
	`, product.ID, product.Name, product.Description, product.Price, product.Thumbnail); err != nil {
		return domain.PersistenceError("upsert product", err)
	}
	return nil
}

// UpsertAddress сохраняет адрес доставки.
func (d *Directory) UpsertAddress(ctx context.Context, address domain.Address) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	if _, err := d.db.ExecContext(ctx, `
		INSERT INTO addresses (
			id, user_id, full_name, line1, line2, city, state, postal_code, country, phone
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE
		SET user_id = EXCLUDED.user_id, full_name = EXCLUDED.full_name,
		    line1 = EXCLUDED.line1, line2 = EXCLUDED.line2, city = EXCLUDED.city,
		    state = EXCLUDED.state, postal_code = EXCLUDED.postal_code,
		    country = EXCLUDED.country, phone = EXCLUDED.phone
	`,
		address.ID, address.UserID, address.FullName, address.Line1, address.Line2,
		address.City, address.State, address.PostalCode, address.Country, address.Phone,
	); err != nil {
		return domain.PersistenceError("upsert address", err)
	}
	return nil
}

func queryUserOrders(ctx context.Context, q queryer, userIDs []string) (map[string][]string, error) {
	result := make(map[string][]string, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	rows, err := q.QueryContext(ctx, `
		SELECT user_id, order_id FROM user_orders
		WHERE user_id = ANY($1)
		ORDER BY user_id, id
	`, userIDs)
	if err != nil {
		return nil, domain.PersistenceError("select user orders", err)
	}
	defer rows.Close()

	for rows.Next() {
		var userID, orderID string
		if err := rows.Scan(&userID, &orderID); err != nil {
			return nil, domain.PersistenceError("scan user order", err)
		}
		result[userID] = append(result[userID], orderID)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.PersistenceError("iterate user orders", err)
	}

	return result, nil
}

var (
	_ domain.CatalogResolver = (*Directory)(nil)
	_ domain.UserOrderIndex  = (*Directory)(nil)
)
