package common

import (
	"log"
	"strconv"
	"time"

	"whitepalace/src/config"
	"whitepalace/src/db"
	"whitepalace/src/models"
	"whitepalace/src/types"
	"whitepalace/src/utils"

	"gorm.io/gorm"
)

// CreateOrder validates the cart, snapshots menu prices, and persists the
// order in a single transaction. Validation failures happen before any
// write.
func CreateOrder(params *types.CreateOrderRequestBody) (*models.Order, error) {
	if len(params.Items) == 0 {
		return nil, types.NewValidationError("order must contain at least one item")
	}
	for _, item := range params.Items {
		if item.Quantity < 1 {
			return nil, types.NewValidationError("item quantity must be at least 1")
		}
	}
	orderType := types.OrderType(params.OrderType)
	if !orderType.Valid() {
		return nil, types.NewValidationError("invalid order type %q", params.OrderType)
	}
	if orderType == types.ORDER_TYPE_DELIVERY && params.DeliveryAddress == "" {
		return nil, types.NewValidationError("delivery orders require a delivery address")
	}
	phone := utils.CleanPhoneNumber(params.CustomerPhone)
	if phone == "" {
		return nil, types.NewValidationError("customer phone is required")
	}

	var order models.Order
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		ids := make([]uint, 0, len(params.Items))
		for _, item := range params.Items {
			ids = append(ids, item.MenuItemID)
		}
		var menuItems []models.MenuItem
		if err := tx.
			Model(&models.MenuItem{}).
			Where("id IN ?", ids).
			Find(&menuItems).
			Error; err != nil {
			return err
		}
		byID := make(map[uint]models.MenuItem, len(menuItems))
		for _, mi := range menuItems {
			byID[mi.ID] = mi
		}

		items := make([]models.OrderItem, 0, len(params.Items))
		for _, input := range params.Items {
			mi, ok := byID[input.MenuItemID]
			if !ok {
				return types.NewValidationError("menu item %d not found", input.MenuItemID)
			}
			if !mi.Available {
				return types.NewValidationError("menu item %q is currently unavailable", mi.Name)
			}
			items = append(items, models.OrderItem{
				MenuItemID: mi.ID,
				Name:       mi.Name,
				PriceCents: mi.PriceCents,
				Quantity:   input.Quantity,
			})
		}

		totals := CalculateOrderTotals(items, config.TaxRateBasisPoints())

		var addr *string
		if params.DeliveryAddress != "" {
			addr = &params.DeliveryAddress
		}
		var notes *string
		if params.SpecialRequests != "" {
			notes = &params.SpecialRequests
		}
		var customerID *uint
		var customer models.Customer
		if err := tx.
			Model(&models.Customer{}).
			Where(&models.Customer{Phone: phone}).
			Find(&customer).
			Error; err == nil && customer.ID > 0 {
			customerID = &customer.ID
		}

		prep := config.PrepTimeMinutes()
		if orderType == types.ORDER_TYPE_DELIVERY {
			prep += config.DeliveryBufferMinutes()
		}
		ready := time.Now().Add(time.Duration(prep) * time.Minute)

		order = models.Order{
			OrderNumber:      utils.GenerateOrderNumber(),
			CustomerPhone:    phone,
			CustomerID:       customerID,
			CustomerName:     params.CustomerName,
			OrderType:        orderType,
			DeliveryAddress:  addr,
			SpecialRequests:  notes,
			SubtotalCents:    totals.SubtotalCents,
			TaxCents:         totals.TaxCents,
			TotalCents:       totals.TotalCents,
			Status:           types.ORDER_PENDING,
			EstimatedReadyAt: &ready,
			Items:            items,
		}
		if err := tx.Create(&order).Error; err != nil {
			log.Printf("Error creating order: %s\n", err.Error())
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// TransitionOrder moves an order along its lifecycle graph. The write is
// conditioned on the currently persisted status still matching the one we
// read, so two racing admins (or an admin racing a payment reconcile)
// cannot both win from a stale view.
func TransitionOrder(orderID uint, target types.OrderStatus) (*models.Order, error) {
	if !target.Valid() {
		return nil, types.NewValidationError("invalid order status %q", target)
	}
	var order models.Order
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.Order{}).
			Where("id = ?", orderID).
			First(&order).
			Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return types.NewNotFoundError("order %d not found", orderID)
			}
			return err
		}
		// Reapplying the current status is a no-op, not a double-fire:
		// completion time and other side effects stay untouched.
		if order.Status == target {
			return nil
		}
		if !order.Status.CanTransitionTo(target) {
			return types.NewConflictError("invalid transition from %s to %s", order.Status, target)
		}
		updates := map[string]any{"status": target}
		if target == types.ORDER_COMPLETED {
			now := time.Now()
			updates["completed_at"] = &now
		}
		res := tx.
			Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, order.Status).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return types.NewConflictError("order %d was modified concurrently, retry with fresh state", orderID)
		}
		if err := tx.
			Model(&models.Order{}).
			Preload("Items").
			Where("id = ?", orderID).
			First(&order).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrder looks an order up by numeric id or by its order number.
func GetOrder(idOrNumber string) (*models.Order, error) {
	var order models.Order
	dbi := db.GetDb()
	query := dbi.Model(&models.Order{}).Preload("Items")
	if id, err := strconv.ParseUint(idOrNumber, 10, 64); err == nil {
		query = query.Where("id = ?", uint(id))
	} else {
		query = query.Where("order_number = ?", idOrNumber)
	}
	if err := query.First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, types.NewNotFoundError("order %s not found", idOrNumber)
		}
		return nil, err
	}
	return &order, nil
}

// ListOrders is the kitchen queue: every order, optionally narrowed to one
// status.
func ListOrders(status types.OrderStatus) ([]models.Order, error) {
	dbi := db.GetDb()
	query := dbi.Model(&models.Order{}).Preload("Items")
	if status != "" {
		if !status.Valid() {
			return nil, types.NewValidationError("invalid order status %q", status)
		}
		query = query.Where("status = ?", status)
	}
	var orders []models.Order
	if err := query.
		Order("created_at DESC").
		Limit(200).
		Find(&orders).
		Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func ListOrdersByPhone(phone string) ([]models.Order, error) {
	var orders []models.Order
	dbi := db.GetDb()
	if err := dbi.
		Model(&models.Order{}).
		Preload("Items").
		Where("customer_phone = ?", utils.CleanPhoneNumber(phone)).
		Order("created_at DESC").
		Limit(100).
		Find(&orders).
		Error; err != nil {
		return nil, err
	}
	return orders, nil
}
