package membership

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/odyssey-books/internal/pricing"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Repository persists plans and reads the service catalogue.
type Repository interface {
	Services(ctx context.Context, organizationID string, ids []uuid.UUID) ([]Service, error)
	NameTaken(ctx context.Context, organizationID, name string, exclude uuid.UUID) (bool, error)
	Insert(ctx context.Context, p Plan) error
	Update(ctx context.Context, p Plan) error
	Delete(ctx context.Context, organizationID string, id uuid.UUID) error
	Get(ctx context.Context, organizationID string, id uuid.UUID) (Plan, error)
	List(ctx context.Context, organizationID string) ([]Plan, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pool-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) Services(ctx context.Context, organizationID string, ids []uuid.UUID) ([]Service, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, organization_id, service_name, grand_total
FROM services WHERE organization_id=$1 AND id = ANY($2)`, organizationID, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.OrganizationID, &s.Name, &s.GrandTotal); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) NameTaken(ctx context.Context, organizationID, name string, exclude uuid.UUID) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM membership_plans
WHERE organization_id=$1 AND lower(plan_name)=lower($2) AND id <> $3)`, organizationID, name, exclude).Scan(&taken)
	return taken, err
}

func (r *repository) Insert(ctx context.Context, p Plan) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO membership_plans
(id, organization_id, plan_name, plan_type, description, duration, discount, actual_rate, selling_price, services,
user_id, user_name, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		p.ID, p.OrganizationID, p.PlanName, string(p.PlanType), p.Description, p.Duration, p.Discount, p.ActualRate,
		p.SellingPrice, p.Services, p.UserID, p.UserName, p.CreatedAt)
	if shared.IsUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}

func (r *repository) Update(ctx context.Context, p Plan) error {
	tag, err := r.pool.Exec(ctx, `UPDATE membership_plans SET plan_name=$3, plan_type=$4, description=$5, duration=$6,
discount=$7, actual_rate=$8, selling_price=$9, services=$10, updated_at=$11
WHERE organization_id=$1 AND id=$2`,
		p.OrganizationID, p.ID, p.PlanName, string(p.PlanType), p.Description, p.Duration, p.Discount, p.ActualRate,
		p.SellingPrice, p.Services, p.UpdatedAt)
	if shared.IsUniqueViolation(err) {
		return ErrNameTaken
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, organizationID string, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM membership_plans WHERE organization_id=$1 AND id=$2`, organizationID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPlanNotFound
	}
	return nil
}

const selectPlanSQL = `SELECT id, organization_id, plan_name, plan_type, description, duration, discount, actual_rate,
selling_price, services, user_id, user_name, created_at, updated_at FROM membership_plans`

func scanPlan(row pgx.Row) (Plan, error) {
	var p Plan
	var planType string
	err := row.Scan(&p.ID, &p.OrganizationID, &p.PlanName, &planType, &p.Description, &p.Duration, &p.Discount,
		&p.ActualRate, &p.SellingPrice, &p.Services, &p.UserID, &p.UserName, &p.CreatedAt, &p.UpdatedAt)
	p.PlanType = pricing.PlanType(planType)
	return p, err
}

func (r *repository) Get(ctx context.Context, organizationID string, id uuid.UUID) (Plan, error) {
	p, err := scanPlan(r.pool.QueryRow(ctx, selectPlanSQL+` WHERE organization_id=$1 AND id=$2`, organizationID, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Plan{}, ErrPlanNotFound
	}
	return p, err
}

func (r *repository) List(ctx context.Context, organizationID string) ([]Plan, error) {
	rows, err := r.pool.Query(ctx, selectPlanSQL+` WHERE organization_id=$1 ORDER BY plan_name`, organizationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Plan
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
