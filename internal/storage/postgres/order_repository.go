package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/storeorders/internal/domain"
)

var errDuplicateOrderID = errors.New("order id already exists")

const orderColumns = `
	o.id, o.owner_id, o.total_amount, o.payment_method, o.shipping_address_id,
	o.status, o.created_at, o.updated_at,
	u.id, u.name, u.email, u.role,
	a.id, a.user_id, a.full_name, a.line1, a.line2, a.city, a.state,
	a.postal_code, a.country, a.phone`

const orderFrom = `
	FROM orders o
	LEFT JOIN users u ON u.id = o.owner_id
	LEFT JOIN addresses a ON a.id = o.shipping_address_id`

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт PostgreSQL-реализацию OrderRepository.
// Ссылки раскрываются LEFT JOIN-ами по users, addresses и products.
func NewOrderRepository(store *Store) domain.OrderRepository {
	return &orderRepository{db: store.DB()}
}

func (r *orderRepository) Insert(ctx context.Context, order domain.Order) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	order = order.Clone()
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.Status == "" {
		order.Status = domain.OrderStatusOrdered
	}
	now := time.Now().UTC()
	order.CreatedAt = now
	order.UpdatedAt = now

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, domain.PersistenceError("begin insert order", err)
	}
	defer rollback(tx)

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, owner_id, total_amount, payment_method, shipping_address_id, status, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		order.ID, order.OwnerID, order.TotalAmount, order.PaymentMethod,
		order.ShippingAddressID, string(order.Status), order.CreatedAt, order.UpdatedAt,
	); err != nil {
		if isUniqueViolation(err) {
			return domain.Order{}, domain.PersistenceError("insert order", errDuplicateOrderID)
		}
		return domain.Order{}, domain.PersistenceError("insert order", err)
	}

	for position, line := range order.Lines {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, position, product_id, quantity)
			VALUES ($1,$2,$3,$4)
		`, order.ID, position, line.ProductID, line.Quantity); err != nil {
			return domain.Order{}, domain.PersistenceError("insert order line", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, domain.PersistenceError("commit insert order", err)
	}

	return order, nil
}

func (r *orderRepository) FindByID(ctx context.Context, id string, expand domain.Expansion) (domain.OrderView, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, `SELECT `+orderColumns+orderFrom+` WHERE o.id = $1`, id)
	if err != nil {
		return domain.OrderView{}, domain.PersistenceError("select order", err)
	}
	views, err := r.collect(ctx, rows, expand)
	if err != nil {
		return domain.OrderView{}, err
	}
	if len(views) == 0 {
		return domain.OrderView{}, domain.ErrOrderNotFound
	}

	return views[0], nil
}

func (r *orderRepository) Find(ctx context.Context, query domain.OrderQuery, expand domain.Expansion) ([]domain.OrderView, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	statuses := make([]string, 0, len(query.Statuses))
	for _, status := range query.Statuses {
		statuses = append(statuses, string(status))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + orderColumns + orderFrom + ` WHERE o.status = ANY($1)`)
	args := []any{statuses}
	if query.OwnerID != "" {
		sb.WriteString(` AND o.owner_id = $2`)
		args = append(args, query.OwnerID)
	}
	if query.NewestFirst {
		sb.WriteString(` ORDER BY o.created_at DESC, o.id DESC`)
	}

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, domain.PersistenceError("select orders", err)
	}

	return r.collect(ctx, rows, expand)
}

func (r *orderRepository) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus, guard domain.StatusGuard) (domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Order{}, domain.PersistenceError("begin update status", err)
	}
	defer rollback(tx)

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, domain.PersistenceError("lock order", err)
	}

	if guard != nil {
		if err := guard(domain.OrderStatus(current)); err != nil {
			return domain.Order{}, err
		}
	}

	var (
		order     domain.Order
		statusRaw string
	)
	if err := tx.QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING id, owner_id, total_amount, payment_method, shipping_address_id, status, created_at, updated_at
	`, string(next), time.Now().UTC(), id).Scan(
		&order.ID, &order.OwnerID, &order.TotalAmount, &order.PaymentMethod,
		&order.ShippingAddressID, &statusRaw, &order.CreatedAt, &order.UpdatedAt,
	); err != nil {
		return domain.Order{}, domain.PersistenceError("update order status", err)
	}
	order.Status = domain.OrderStatus(statusRaw)

	lines, err := queryLines(ctx, tx, []string{order.ID})
	if err != nil {
		return domain.Order{}, err
	}
	for _, line := range lines[order.ID] {
		order.Lines = append(order.Lines, line.OrderLine)
	}

	if err := tx.Commit(); err != nil {
		return domain.Order{}, domain.PersistenceError("commit update status", err)
	}

	return order, nil
}

// collect сканирует строки заказов и догружает позиции и списки заказов владельцев.
func (r *orderRepository) collect(ctx context.Context, rows *sql.Rows, expand domain.Expansion) ([]domain.OrderView, error) {
	views, err := scanOrderRows(rows, expand)
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return views, nil
	}

	ids := make([]string, 0, len(views))
	for _, view := range views {
		ids = append(ids, view.ID)
	}
	lines, err := queryLines(ctx, r.db, ids)
	if err != nil {
		return nil, err
	}

	var owners map[string][]string
	if expand.Owner {
		ownerIDs := make([]string, 0, len(views))
		for _, view := range views {
			if view.Owner != nil {
				ownerIDs = append(ownerIDs, view.Owner.ID)
			}
		}
		if owners, err = queryUserOrders(ctx, r.db, ownerIDs); err != nil {
			return nil, err
		}
	}

	for i := range views {
		view := &views[i]
		view.Lines = make([]domain.LineView, 0, len(lines[view.ID]))
		view.Order.Lines = make([]domain.OrderLine, 0, len(lines[view.ID]))
		for _, line := range lines[view.ID] {
			view.Order.Lines = append(view.Order.Lines, line.OrderLine)
			if !expand.Products {
				line.Product = nil
			}
			view.Lines = append(view.Lines, line)
		}
		if view.Owner != nil {
			view.Owner.Orders = append([]string(nil), owners[view.Owner.ID]...)
		}
	}

	return views, nil
}

func scanOrderRows(rows *sql.Rows, expand domain.Expansion) ([]domain.OrderView, error) {
	defer rows.Close()

	views := make([]domain.OrderView, 0)
	for rows.Next() {
		var (
			view      domain.OrderView
			statusRaw string
			user      nullUser
			address   nullAddress
		)
		if err := rows.Scan(
			&view.ID, &view.OwnerID, &view.TotalAmount, &view.PaymentMethod, &view.ShippingAddressID,
			&statusRaw, &view.CreatedAt, &view.UpdatedAt,
			&user.ID, &user.Name, &user.Email, &user.Role,
			&address.ID, &address.UserID, &address.FullName, &address.Line1, &address.Line2,
			&address.City, &address.State, &address.PostalCode, &address.Country, &address.Phone,
		); err != nil {
			return nil, domain.PersistenceError("scan order row", err)
		}
		view.Status = domain.OrderStatus(statusRaw)
		if expand.Owner {
			view.Owner = user.toDomain()
		}
		if expand.ShippingAddress {
			view.ShippingAddress = address.toDomain()
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.PersistenceError("iterate order rows", err)
	}

	return views, nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryLines возвращает позиции заказов в исходном порядке, с раскрытыми товарами.
func queryLines(ctx context.Context, q queryer, orderIDs []string) (map[string][]domain.LineView, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT l.order_id, l.product_id, l.quantity,
		       p.id, p.name, p.description, p.price, p.thumbnail
		FROM order_lines l
		LEFT JOIN products p ON p.id = l.product_id
		WHERE l.order_id = ANY($1)
		ORDER BY l.order_id, l.position
	`, orderIDs)
	if err != nil {
		return nil, domain.PersistenceError("select order lines", err)
	}
	defer rows.Close()

	result := make(map[string][]domain.LineView, len(orderIDs))
	for rows.Next() {
		var (
			orderID string
			line    domain.LineView
			product nullProduct
		)
		if err := rows.Scan(
			&orderID, &line.ProductID, &line.Quantity,
			&product.ID, &product.Name, &product.Description, &product.Price, &product.Thumbnail,
		); err != nil {
			return nil, domain.PersistenceError("scan order line", err)
		}
		line.Product = product.toDomain()
		result[orderID] = append(result[orderID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.PersistenceError("iterate order lines", err)
	}

	return result, nil
}

type nullUser struct {
	ID, Name, Email, Role sql.NullString
}

func (u nullUser) toDomain() *domain.User {
	if !u.ID.Valid {
		return nil
	}
	return &domain.User{ID: u.ID.String, Name: u.Name.String, Email: u.Email.String, Role: u.Role.String}
}

type nullAddress struct {
	ID, UserID, FullName, Line1, Line2, City, State, PostalCode, Country, Phone sql.NullString
}

func (a nullAddress) toDomain() *domain.Address {
	if !a.ID.Valid {
		return nil
	}
	return &domain.Address{
		ID:         a.ID.String,
		UserID:     a.UserID.String,
		FullName:   a.FullName.String,
		Line1:      a.Line1.String,
		Line2:      a.Line2.String,
		City:       a.City.String,
		State:      a.State.String,
		PostalCode: a.PostalCode.String,
		Country:    a.Country.String,
		Phone:      a.Phone.String,
	}
}

type nullProduct struct {
	ID, Name, Description, Thumbnail sql.NullString
	Price                            decimal.NullDecimal
}

func (p nullProduct) toDomain() *domain.Product {
	if !p.ID.Valid {
		return nil
	}
	return &domain.Product{
		ID:          p.ID.String,
		Name:        p.Name.String,
		Description: p.Description.String,
		Price:       p.Price.Decimal,
		Thumbnail:   p.Thumbnail.String,
	}
}

var _ domain.OrderRepository = (*orderRepository)(nil)
