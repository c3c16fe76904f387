package sale

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"tillpoint/internal/core/apperror"
	appctx "tillpoint/internal/core/context"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/tenant"
	"tillpoint/internal/core/tx"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/audit"
	"tillpoint/internal/domain/cart"
	"tillpoint/internal/domain/inventory"
	"tillpoint/internal/domain/shift"
	"tillpoint/pkg/logger"
	"tillpoint/pkg/numerator"
)

// CheckoutInput carries the parameters of a checkout request. Customer
// and discount normally ride on the cart; the overrides here win when
// set, for callers that send them with the final request instead.
type CheckoutInput struct {
	RegisterID     string
	ShiftID        id.ID
	PaymentMethod  PaymentMethod
	AmountTendered types.MinorUnits
	CustomerID     string
	Discount       *cart.Discount
}

// CheckoutResult is everything created by one checkout.
type CheckoutResult struct {
	Sale        *Sale                  `json:"sale"`
	Payment     *Payment               `json:"payment"`
	Receipt     *Receipt               `json:"receipt"`
	StockAlerts []inventory.StockAlert `json:"stockAlerts,omitempty"`
}

// Service is the checkout engine.
type Service struct {
	txm     tx.Manager
	repo    Repository
	carts   *cart.Service
	shifts  shift.Repository
	ledger  *inventory.Ledger
	audit   *audit.Service
	numbers *numerator.Service
}

// NewService creates a new checkout engine.
func NewService(
	txm tx.Manager,
	repo Repository,
	carts *cart.Service,
	shifts shift.Repository,
	ledger *inventory.Ledger,
	auditSvc *audit.Service,
	numbers *numerator.Service,
) *Service {
	return &Service{
		txm:     txm,
		repo:    repo,
		carts:   carts,
		shifts:  shifts,
		ledger:  ledger,
		audit:   auditSvc,
		numbers: numbers,
	}
}

// Checkout converts the register's live cart into an immutable Sale
// with its Payment and Receipt, decrements stock and records the audit
// trail. All records commit together or not at all; the cart is
// cleared only after a successful commit.
func (s *Service) Checkout(ctx context.Context, in CheckoutInput) (*CheckoutResult, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, in.RegisterID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, apperror.NewEmptyCart(in.RegisterID)
	}

	if in.CustomerID != "" {
		c.SetCustomer(in.CustomerID)
	}
	if in.Discount != nil {
		c.SetDiscount(in.Discount)
	}

	settings := tenant.GetSettings(ctx)
	totals := computeTotals(c, settings.TaxRatePercent)

	result := &CheckoutResult{}
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		sh, err := s.shifts.GetByIDForUpdate(ctx, tenantID, in.ShiftID)
		if err != nil {
			return err
		}
		if !sh.IsOpen() {
			return apperror.NewShiftClosed(sh.ID.String())
		}

		number, err := s.numbers.GetNextNumber(ctx, numerator.DefaultConfig("S"), numerator.DefaultOptions(), time.Now())
		if err != nil {
			return fmt.Errorf("allocate sale number: %w", err)
		}
		receiptNumber, err := s.numbers.GetNextNumber(ctx, numerator.DefaultConfig("R"), numerator.DefaultOptions(), time.Now())
		if err != nil {
			return fmt.Errorf("allocate receipt number: %w", err)
		}

		now := time.Now().UTC()
		sl := &Sale{
			ID:             id.New(),
			Number:         number,
			TenantID:       tenantID,
			RegisterID:     in.RegisterID,
			ShiftID:        sh.ID,
			CustomerID:     c.CustomerID,
			Lines:          snapshotLines(c),
			Discount:       c.Discount,
			Subtotal:       totals.subtotal,
			DiscountAmount: totals.discount,
			TaxAmount:      totals.tax,
			GrandTotal:     totals.grand,
			PaymentMethod:  in.PaymentMethod,
			CashierID:      appctx.GetUserID(ctx),
			CreatedAt:      now,
		}
		for i := range sl.Lines {
			sl.Lines[i].SaleID = sl.ID
		}

		if err := s.repo.CreateSale(ctx, sl); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		payment := &Payment{
			ID:             id.New(),
			SaleID:         sl.ID,
			TenantID:       tenantID,
			Method:         in.PaymentMethod,
			AmountTendered: in.AmountTendered,
			ChangeGiven:    changeFor(in.AmountTendered, totals.grand),
			CreatedAt:      now,
		}
		if err := s.repo.CreatePayment(ctx, payment); err != nil {
			return fmt.Errorf("create payment: %w", err)
		}

		receipt := &Receipt{
			ID:        id.New(),
			SaleID:    sl.ID,
			TenantID:  tenantID,
			Number:    receiptNumber,
			CreatedAt: now,
		}
		if err := s.repo.CreateReceipt(ctx, receipt); err != nil {
			return fmt.Errorf("create receipt: %w", err)
		}

		movements := make([]inventory.Movement, 0, len(sl.Lines))
		for _, line := range sl.Lines {
			movements = append(movements, inventory.NewMovement(
				tenantID, sl.ID, inventory.RecorderTypeSale,
				inventory.RecordTypeExpense, line.ProductID, line.Quantity,
			))
		}
		alerts, err := s.ledger.Apply(ctx, movements)
		if err != nil {
			return err
		}

		if err := s.audit.Record(ctx, audit.ActionSaleCompleted, "sale", sl.ID.String(), nil, sl, map[string]any{
			"register_id": in.RegisterID,
			"shift_id":    sh.ID.String(),
		}); err != nil {
			return err
		}
		if sl.Discount != nil {
			err = s.audit.Record(ctx, audit.ActionDiscountApplied, "sale", sl.ID.String(), nil, sl.Discount, map[string]any{
				"amount_off": sl.DiscountAmount.String(),
			})
			if err != nil {
				return err
			}
		}

		result.Sale = sl
		result.Payment = payment
		result.Receipt = receipt
		result.StockAlerts = alerts
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The cart lives outside the database transaction. Clearing after
	// commit keeps it all-or-nothing: on failure it is untouched, and a
	// clear failure here leaves a stale cart, never a lost sale.
	if err := s.carts.Clear(ctx, in.RegisterID); err != nil {
		logger.Warn(ctx, "cart clear after checkout failed",
			"register_id", in.RegisterID,
			"sale_id", result.Sale.ID,
			"error", err,
		)
	}

	logger.Info(ctx, "checkout completed",
		"sale_id", result.Sale.ID,
		"number", result.Sale.Number,
		"grand_total", result.Sale.GrandTotal,
		"lines", len(result.Sale.Lines),
	)

	return result, nil
}

// Get loads a sale with its lines.
func (s *Service) Get(ctx context.Context, saleID id.ID) (*Sale, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, tenantID, saleID)
}

// List returns sale summaries for display.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*Summary, error) {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	return s.repo.List(ctx, tenantID, filter)
}

// PrintReceipt stamps a receipt as printed.
func (s *Service) PrintReceipt(ctx context.Context, receiptID id.ID) error {
	tenantID, err := tenant.RequireTenantID(ctx)
	if err != nil {
		return err
	}
	return s.repo.MarkReceiptPrinted(ctx, tenantID, receiptID)
}

type totals struct {
	subtotal types.MinorUnits
	discount types.MinorUnits
	tax      types.MinorUnits
	grand    types.MinorUnits
}

// computeTotals applies the cart discount to the subtotal, then tax
// multiplicatively on the discounted amount.
func computeTotals(c *cart.Cart, taxRatePercent decimal.Decimal) totals {
	t := totals{subtotal: c.Subtotal()}
	if c.Discount != nil {
		t.discount = c.Discount.AmountOff(t.subtotal)
	}
	discounted := t.subtotal - t.discount
	if taxRatePercent.IsPositive() {
		t.tax = types.MinorUnitsFromDecimal(
			discounted.Decimal().Mul(taxRatePercent).Div(decimal.NewFromInt(100)),
		)
	}
	t.grand = discounted + t.tax
	return t
}

func changeFor(tendered, grand types.MinorUnits) types.MinorUnits {
	if tendered > grand {
		return tendered - grand
	}
	return 0
}

func snapshotLines(c *cart.Cart) []Line {
	lines := make([]Line, 0, len(c.Items))
	for _, it := range c.Items {
		lines = append(lines, Line{
			ID:        id.New(),
			ProductID: it.ProductID,
			SKU:       it.SKU,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			CostPrice: it.CostPrice,
			Quantity:  it.Quantity,
			Subtotal:  it.Subtotal,
		})
	}
	return lines
}

func validateInput(in CheckoutInput) error {
	if in.RegisterID == "" {
		return apperror.NewValidation("register_id is required")
	}
	if id.IsNil(in.ShiftID) {
		return apperror.NewValidation("shift_id is required")
	}
	switch in.PaymentMethod {
	case PaymentCash, PaymentCard, PaymentTransfer:
	default:
		return apperror.NewValidation(fmt.Sprintf("unknown payment method: %s", in.PaymentMethod))
	}
	if in.AmountTendered.IsNegative() {
		return apperror.NewValidation("amount tendered must not be negative")
	}
	return nil
}
