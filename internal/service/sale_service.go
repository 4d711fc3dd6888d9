package service

import (
	"context"
	"sort"

	"posengine/internal/apierror"
	"posengine/internal/bundle"
	"posengine/internal/dto"
	"posengine/internal/model"
	"posengine/internal/repository"
	"posengine/internal/worker"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	storeCreditDescription  = "Store credit applied to sale"
	refundCreditDescription = "Refund issued as store credit"
)

// SaleService finalizes checkouts: pricing, stock, customer ledger and the
// sale record commit or roll back together.
type SaleService interface {
	Complete(ctx context.Context, actor Actor, req dto.CompleteSaleRequest) (*model.Sale, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Sale, error)
}

type saleService struct {
	store             *repository.Store
	stock             StockService
	bundles           BundleService
	customers         CustomerService
	alerts            AlertPublisher
	clock             Clock
	lowStockThreshold int
}

func NewSaleService(
	store *repository.Store,
	stock StockService,
	bundles BundleService,
	customers CustomerService,
	alerts AlertPublisher,
	clock Clock,
	lowStockThreshold int,
) SaleService {
	return &saleService{
		store:             store,
		stock:             stock,
		bundles:           bundles,
		customers:         customers,
		alerts:            alerts,
		clock:             clock,
		lowStockThreshold: lowStockThreshold,
	}
}

type pricedLine struct {
	product  *model.Product
	quantity int
	price    decimal.Decimal
	total    decimal.Decimal
}

// ── Complete ──────────────────────────────────────────────────────────────────
//   1. Resolve products and prices (pre-flight, outside the tx)
//   2. Optional bundle discount: the single best application
//   3. Payment split and store credit checks
//   4. TX: sale + items, stock per line, customer ledger
//   5. (async) low stock alerts

func (s *saleService) Complete(ctx context.Context, actor Actor, req dto.CompleteSaleRequest) (*model.Sale, error) {
	if err := validateActor(actor); err != nil {
		return nil, err
	}
	if len(req.Lines) == 0 {
		return nil, apierror.Validation("a sale needs at least one line")
	}
	switch req.PaymentMethod {
	case model.PaymentCash, model.PaymentEFT, model.PaymentSplit:
	default:
		return nil, apierror.Validation("invalid payment method %q", req.PaymentMethod)
	}
	if req.StoreCredit.IsNegative() || req.CashAmount.IsNegative() || req.EFTAmount.IsNegative() {
		return nil, apierror.Validation("payment amounts cannot be negative")
	}
	var customerID *uuid.UUID
	if req.CustomerID != nil && *req.CustomerID != "" {
		id, err := uuid.Parse(*req.CustomerID)
		if err != nil {
			return nil, apierror.Validation("invalid customer_id")
		}
		customerID = &id
	}
	if customerID == nil && (req.StoreCredit.IsPositive() || req.RefundToCredit) {
		return nil, apierror.Validation("store credit requires a customer")
	}
	if req.RefundToCredit && !req.Refund {
		return nil, apierror.Validation("refund_to_credit is only valid on refunds")
	}
	if req.Refund && req.StoreCredit.IsPositive() {
		return nil, apierror.Validation("store credit cannot pay for a refund")
	}

	// 1. Pre-flight
	lines := make([]pricedLine, 0, len(req.Lines))
	subtotal := decimal.Zero
	for _, l := range req.Lines {
		pid, err := uuid.Parse(l.ProductID)
		if err != nil {
			return nil, apierror.Validation("invalid product_id %q", l.ProductID)
		}
		if l.Quantity <= 0 {
			return nil, apierror.Validation("line quantity must be positive")
		}
		p, err := s.store.Products.FindByID(ctx, pid)
		if err != nil {
			return nil, lookup(err, "product", pid)
		}
		if !p.Active && !req.Refund {
			return nil, apierror.Validation("product %s is inactive", p.Name)
		}
		price := p.Price
		if l.UnitPrice != nil {
			if l.UnitPrice.IsNegative() {
				return nil, apierror.Validation("unit price cannot be negative")
			}
			price = *l.UnitPrice
		}
		total := price.Mul(decimal.NewFromInt(int64(l.Quantity)))
		subtotal = subtotal.Add(total)
		lines = append(lines, pricedLine{product: p, quantity: l.Quantity, price: price, total: total})
	}

	// 2. Bundles
	discount := decimal.Zero
	if req.ApplyBundles && !req.Refund {
		cart := make([]bundle.Line, len(lines))
		for i, l := range lines {
			cart[i] = bundle.Line{ProductID: l.product.ID, Quantity: l.quantity, UnitPrice: l.price}
		}
		apps, err := s.bundles.Apply(ctx, cart)
		if err != nil {
			return nil, err
		}
		if best, ok := bundle.Best(apps); ok {
			discount = decimal.Min(best.Savings, subtotal)
		}
	}
	total := subtotal.Sub(discount)

	// 3. Payment
	sale := &model.Sale{
		UserID:        actor.ID,
		CustomerID:    customerID,
		Subtotal:      subtotal,
		DiscountTotal: discount,
		PaymentMethod: req.PaymentMethod,
		CashAmount:    decimal.Zero,
		EFTAmount:     decimal.Zero,
		CreditAmount:  decimal.Zero,
		Status:        model.SaleCompleted,
	}
	if req.Refund {
		sale.Subtotal = subtotal.Neg()
		sale.Total = total.Neg()
		switch {
		case req.RefundToCredit:
			sale.CreditAmount = sale.Total
		case req.PaymentMethod == model.PaymentCash:
			sale.CashAmount = sale.Total
		case req.PaymentMethod == model.PaymentEFT:
			sale.EFTAmount = sale.Total
		default:
			return nil, apierror.Validation("refunds are paid out in cash, eft or store credit")
		}
	} else {
		if req.StoreCredit.GreaterThan(total) {
			return nil, apierror.Validation("store credit exceeds the sale total")
		}
		sale.Total = total
		sale.CreditAmount = req.StoreCredit
		due := total.Sub(req.StoreCredit)
		switch req.PaymentMethod {
		case model.PaymentCash:
			sale.CashAmount = due
		case model.PaymentEFT:
			sale.EFTAmount = due
		case model.PaymentSplit:
			if !req.CashAmount.Add(req.EFTAmount).Equal(due) {
				return nil, apierror.Validation("split payment %s + %s does not match amount due %s",
					req.CashAmount.StringFixed(2), req.EFTAmount.StringFixed(2), due.StringFixed(2))
			}
			sale.CashAmount = req.CashAmount
			sale.EFTAmount = req.EFTAmount
		}
	}
	for _, l := range lines {
		item := model.SaleItem{ProductID: l.product.ID, Quantity: l.quantity, UnitPrice: l.price, LineTotal: l.total}
		if req.Refund {
			item.LineTotal = l.total.Neg()
		}
		sale.Items = append(sale.Items, item)
	}

	// 4. Transaction
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if active, err := tx.Shifts.FindActiveByUser(ctx, actor.ID); err == nil {
			sale.ShiftID = &active.ID
		} else if !repository.IsNotFound(err) {
			return repository.Classify(err)
		}
		sale.CreatedAt = s.clock.now()
		if err := tx.Sales.Create(ctx, sale); err != nil {
			return repository.Classify(err)
		}

		ordered, err := inLockOrder(ctx, tx, lines)
		if err != nil {
			return err
		}
		for _, l := range ordered {
			if req.Refund {
				if _, err := s.stock.ReturnTx(ctx, tx, actor, l.product.ID, l.quantity, &sale.ID); err != nil {
					return err
				}
				continue
			}
			if _, err := s.stock.DeductTx(ctx, tx, actor, DeductInput{
				ProductID:    l.product.ID,
				Quantity:     l.quantity,
				MovementType: model.MovementSale,
				ReferenceID:  &sale.ID,
			}); err != nil {
				return err
			}
		}

		if customerID == nil {
			return nil
		}
		if req.Refund {
			if req.RefundToCredit {
				_, err := s.customers.AdjustBalanceTx(ctx, tx, *customerID, sale.Total.Abs(), refundCreditDescription, &sale.ID)
				return err
			}
			return nil
		}
		if sale.Total.IsPositive() {
			if _, err := s.customers.RecordPurchaseTx(ctx, tx, *customerID, sale.Total, &sale.ID); err != nil {
				return err
			}
		}
		if sale.CreditAmount.IsPositive() {
			if _, err := s.customers.AdjustBalanceTx(ctx, tx, *customerID, sale.CreditAmount.Neg(), storeCreditDescription, &sale.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 5. Alerts
	if !req.Refund {
		s.checkLowStock(ctx, lines)
	}
	return sale, nil
}

// inLockOrder sorts a copy of the lines by the first row each one locks, so
// concurrent sales over the same products lock them in the same order.
func inLockOrder(ctx context.Context, tx *repository.Store, lines []pricedLine) ([]pricedLine, error) {
	keys := make(map[uuid.UUID]string, len(lines))
	for _, l := range lines {
		key, err := stockLockKey(ctx, tx, l.product.ID)
		if err != nil {
			return nil, err
		}
		keys[l.product.ID] = key.String()
	}
	ordered := append([]pricedLine(nil), lines...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return keys[ordered[i].product.ID] < keys[ordered[j].product.ID]
	})
	return ordered, nil
}

func (s *saleService) checkLowStock(ctx context.Context, lines []pricedLine) {
	if s.alerts == nil {
		return
	}
	for _, l := range lines {
		available, err := s.stock.AvailableStock(ctx, l.product.ID)
		if err != nil || available > s.lowStockThreshold {
			continue
		}
		publishLowStock(ctx, s.alerts, worker.LowStockAlert{
			ProductID:   l.product.ID.String(),
			ProductName: l.product.Name,
			Available:   available,
			Threshold:   s.lowStockThreshold,
		})
	}
}

func (s *saleService) Get(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, err := s.store.Sales.FindByID(ctx, id)
	if err != nil {
		return nil, lookup(err, "sale", id)
	}
	return sale, nil
}
