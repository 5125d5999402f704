package load

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pizzaflow/internal/model"
)

func pizzas(n int) []model.OrderItem {
	items := make([]model.OrderItem, n)
	for i := range items {
		items[i] = model.OrderItem{Category: model.KitchenCategory, Status: model.ItemNew}
	}
	return items
}

func sampleOrders() []model.Order {
	return []model.Order{
		{ID: "a", Date: "2024-06-10", Time: "19:30", Items: pizzas(3)},
		{ID: "b", Date: "2024-06-10", Time: "19:30", Items: append(pizzas(1),
			model.OrderItem{Category: "Cucina", RequiresCooking: true},
			model.OrderItem{Category: "Bevande"},
		)},
		{ID: "c", Date: "2024-06-10", Time: "19:30", Items: pizzas(5), IsArchived: true},
		{ID: "d", Date: "2024-06-10", Time: "19:45", Items: pizzas(4)},
		{ID: "e", Date: "2024-06-11", Time: "19:30", Items: pizzas(4)},
		{ID: "f", Date: "", Time: "19:30", Items: pizzas(2)},
	}
}

func TestSlotLoad(t *testing.T) {
	orders := sampleOrders()

	assert.Equal(t, 5, SlotLoad(orders, "2024-06-10", "19:30"))
	assert.Equal(t, 4, SlotLoad(orders, "2024-06-10", "19:45"))
	assert.Equal(t, 0, SlotLoad(orders, "2024-06-10", "20:00"))
}

func TestSlotLoad_ExcludeOrder(t *testing.T) {
	orders := sampleOrders()

	assert.Equal(t, 2, SlotLoad(orders, "2024-06-10", "19:30", ExcludeOrder("a")))
	assert.Equal(t, 3, SlotLoad(orders, "2024-06-10", "19:30", ExcludeOrder("b")))
}

func TestSlotLoad_UndatedCountsToday(t *testing.T) {
	orders := sampleOrders()

	assert.Equal(t, 7, SlotLoad(orders, "2024-06-10", "19:30", AsOf("2024-06-10")))
	assert.Equal(t, 5, SlotLoad(orders, "2024-06-10", "19:30", AsOf("2024-06-09")))
}

func TestSlotLoad_DoesNotMutate(t *testing.T) {
	orders := sampleOrders()
	before := SlotLoad(orders, "2024-06-10", "19:30")
	orders = append(orders, model.Order{ID: "g", Date: "2024-06-10", Time: "19:30", Items: pizzas(1)})
	assert.Equal(t, before+1, SlotLoad(orders, "2024-06-10", "19:30"))
}

func TestIncomingLoad(t *testing.T) {
	cart := append(pizzas(2), model.OrderItem{Category: "Dessert"})
	assert.Equal(t, 2, IncomingLoad(cart))
	assert.Equal(t, 0, IncomingLoad(nil))
}

func TestShiftLoad(t *testing.T) {
	perSlot, total := ShiftLoad(sampleOrders(), "2024-06-10", []string{"19:30", "19:45", "20:00"})
	assert.Equal(t, map[string]int{"19:30": 5, "19:45": 4, "20:00": 0}, perSlot)
	assert.Equal(t, 9, total)
}
