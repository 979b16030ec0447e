package api

import (
	"context"
	"sort"
	"time"

	"transacciones_api/internal/domain"
	"transacciones_api/internal/policy"
	"transacciones_api/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// memUserStore is an in-memory UserStore for handler tests
type memUserStore struct {
	seq   uint
	users map[uint]domain.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: map[uint]domain.User{}}
}

func (m *memUserStore) List(ctx context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memUserStore) Get(ctx context.Context, id uint) (domain.User, error) {
	u, ok := m.users[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (m *memUserStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (m *memUserStore) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	for _, u := range m.users {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memUserStore) Create(ctx context.Context, u *domain.User) error {
	if taken, _ := m.EmailTaken(ctx, u.Email, 0); taken {
		return store.ErrEmailTaken
	}
	m.seq++
	u.ID = m.seq
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *memUserStore) Update(ctx context.Context, u *domain.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return store.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	m.users[u.ID] = *u
	return nil
}

func (m *memUserStore) Delete(ctx context.Context, id uint) error {
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

// memTxStore is an in-memory TransactionStore. Create applies the same admission
// rules as the GORM store so handler tests exercise the real decision path.
type memTxStore struct {
	owners *memUserStore
	seq    uint
	txs    []domain.Transaction
}

func newMemTxStore(owners *memUserStore) *memTxStore {
	return &memTxStore{owners: owners}
}

func (m *memTxStore) withOwner(t domain.Transaction) domain.Transaction {
	if t.UserID != nil {
		if u, ok := m.owners.users[*t.UserID]; ok {
			t.User = &u
		}
	}
	return t
}

func (m *memTxStore) List(ctx context.Context) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0, len(m.txs))
	for _, t := range m.txs {
		out = append(out, m.withOwner(t))
	}
	return out, nil
}

func (m *memTxStore) Get(ctx context.Context, id uint) (domain.Transaction, error) {
	for _, t := range m.txs {
		if t.ID == id {
			return m.withOwner(t), nil
		}
	}
	return domain.Transaction{}, store.ErrNotFound
}

func (m *memTxStore) Create(ctx context.Context, t *domain.Transaction) error {
	if t.UserID == nil {
		return store.ErrOwnerMissing
	}
	if _, ok := m.owners.users[*t.UserID]; !ok {
		return store.ErrOwnerMissing
	}
	start, end := policy.DayWindow(t.Fecha)
	daySum := decimal.Zero
	duplicate := false
	for _, existing := range m.txs {
		if existing.UserID == nil || *existing.UserID != *t.UserID {
			continue
		}
		if !existing.Fecha.Before(start) && !existing.Fecha.After(end) {
			daySum = daySum.Add(existing.Monto)
		}
		if existing.Monto.Equal(t.Monto) && existing.Fecha.Equal(t.Fecha) {
			duplicate = true
		}
	}
	if err := policy.Evaluate(daySum, t.Monto, duplicate); err != nil {
		return err
	}
	m.seq++
	t.ID = m.seq
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	m.txs = append(m.txs, *t)
	return nil
}

func (m *memTxStore) Delete(ctx context.Context, id uint) error {
	for i, t := range m.txs {
		if t.ID == id {
			m.txs = append(m.txs[:i], m.txs[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memTxStore) inFilter(t domain.Transaction, f store.DateFilter) bool {
	if f.From != nil && t.Fecha.Before(*f.From) {
		return false
	}
	if f.To != nil && t.Fecha.After(*f.To) {
		return false
	}
	return true
}

func (m *memTxStore) SummaryByUser(ctx context.Context, f store.DateFilter) ([]domain.UserSummary, error) {
	totals := map[uint]decimal.Decimal{}
	counts := map[uint]int64{}
	for _, t := range m.txs {
		if t.UserID == nil || !m.inFilter(t, f) {
			continue
		}
		if _, ok := m.owners.users[*t.UserID]; !ok {
			continue
		}
		totals[*t.UserID] = totals[*t.UserID].Add(t.Monto)
		counts[*t.UserID]++
	}
	ids := make([]uint, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]domain.UserSummary, 0, len(ids))
	for _, id := range ids {
		owner := m.owners.users[id]
		out = append(out, domain.UserSummary{
			ID:               id,
			Usuario:          owner.Name,
			Email:            owner.Email,
			TotalTransferido: totals[id],
			PromedioMonto:    totals[id].Div(decimal.NewFromInt(counts[id])),
		})
	}
	return out, nil
}

func (m *memTxStore) ForEachExportRow(ctx context.Context, f store.DateFilter, fn func(domain.ExportRow) error) error {
	for _, t := range m.txs {
		if !m.inFilter(t, f) {
			continue
		}
		row := domain.ExportRow{
			ID:        t.ID,
			Usuario:   "Unknown",
			Email:     "Unknown",
			Monto:     t.Monto,
			Fecha:     t.Fecha,
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		}
		if t.UserID != nil {
			if u, ok := m.owners.users[*t.UserID]; ok {
				row.Usuario = u.Name
				row.Email = u.Email
			}
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	return nil
}

// newTestRouter wires every handler over the in-memory stores, without auth
// middleware or Redis, mirroring the route table of cmd/server
func newTestRouter(users *memUserStore, txs *memTxStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/users", ListUsersHandler(users))
	r.POST("/users", CreateUserHandler(users))
	r.GET("/users/:id", GetUserHandler(users))
	r.PUT("/users/:id", UpdateUserHandler(users))
	r.DELETE("/users/:id", DeleteUserHandler(users))
	r.GET("/transacciones", ListTransactionsHandler(txs, nil))
	r.POST("/transacciones", CreateTransactionHandler(txs, nil))
	r.GET("/transacciones/:id", GetTransactionHandler(txs))
	r.DELETE("/transacciones/:id", DeleteTransactionHandler(txs, nil))
	r.GET("/export", ExportCSVHandler(txs))
	r.GET("/resumen-usuario", SummaryByUserHandler(txs, nil))
	return r
}

// seedUser inserts a user directly into the stub store
func seedUser(users *memUserStore, name, email string) domain.User {
	u := domain.User{Name: name, Email: email, Password: "$2a$10$abcdefghijklmnopqrstuv", SaldoInicial: decimal.NewFromInt(100)}
	_ = users.Create(context.Background(), &u)
	return u
}

// seedTx inserts a transaction directly into the stub store, bypassing admission
func seedTx(txs *memTxStore, userID uint, monto decimal.Decimal, fecha time.Time) domain.Transaction {
	txs.seq++
	t := domain.Transaction{ID: txs.seq, UserID: &userID, Monto: monto, Fecha: fecha, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	txs.txs = append(txs.txs, t)
	return t
}
