package http

import (
	"net/http"

	"boutique/internal/core"
)

func (s *Server) handleListSales(w http.ResponseWriter, r *http.Request) {
	if !s.loaded(w) {
		return
	}
	NewResponse().JSON(listOf(s.store.Sales(), newSaleView)).Write(w)
}

func (s *Server) handleCreateSale(w http.ResponseWriter, r *http.Request) {
	var form saleForm
	if !decode(w, r, &form) {
		return
	}
	sale, err := form.record()
	if err != nil {
		s.respondError(w, r, err, "failed to add sale")
		return
	}
	saved, err := s.records.AddSale(r.Context(), sale)
	if err != nil {
		s.respondError(w, r, err, "failed to add sale")
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(newSaleView(saved)).Write(w)
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	if !s.loaded(w) {
		return
	}
	NewResponse().JSON(listOf(s.store.Expenses(), newExpenseView)).Write(w)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var form expenseForm
	if !decode(w, r, &form) {
		return
	}
	expense, err := form.record()
	if err != nil {
		s.respondError(w, r, err, "failed to add expense")
		return
	}
	saved, err := s.records.AddExpense(r.Context(), expense)
	if err != nil {
		s.respondError(w, r, err, "failed to add expense")
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(newExpenseView(saved)).Write(w)
}

// handleListOrders accepts ?open=true to drop completed and canceled orders.
func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	if !s.loaded(w) {
		return
	}
	orders := s.store.Orders()
	if r.URL.Query().Get("open") == "true" {
		open := orders[:0]
		for _, o := range orders {
			if !o.Status.IsTerminal() {
				open = append(open, o)
			}
		}
		orders = open
	}
	NewResponse().JSON(listOf(orders, newOrderView)).Write(w)
}

func (s *Server) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var form orderForm
	if !decode(w, r, &form) {
		return
	}
	order, err := form.record()
	if err != nil {
		s.respondError(w, r, err, "failed to add tailoring order")
		return
	}
	saved, err := s.records.AddOrder(r.Context(), order)
	if err != nil {
		s.respondError(w, r, err, "failed to add tailoring order")
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(newOrderView(saved)).Write(w)
}

// handleUpdateOrder captures a payment against an order and optionally moves
// it to a new status.
func (s *Server) handleUpdateOrder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var form orderUpdateForm
	if !decode(w, r, &form) {
		return
	}
	payment, status, err := form.values()
	if err != nil {
		s.respondError(w, r, err, "failed to update tailoring order")
		return
	}
	if status != "" && !status.IsValid() {
		ValidationError(core.FieldErrors{"status": "invalid status"}).Write(w)
		return
	}
	updated, err := s.records.UpdateOrder(r.Context(), id, payment, status)
	if err != nil {
		s.respondError(w, r, err, "failed to update tailoring order")
		return
	}
	NewResponse().JSON(newOrderView(updated)).Write(w)
}

func (s *Server) handleListDesigns(w http.ResponseWriter, r *http.Request) {
	if !s.loaded(w) {
		return
	}
	NewResponse().JSON(listOf(s.store.Designs(), newDesignView)).Write(w)
}

func (s *Server) handleCreateDesign(w http.ResponseWriter, r *http.Request) {
	var form designForm
	if !decode(w, r, &form) {
		return
	}
	design, err := form.record()
	if err != nil {
		s.respondError(w, r, err, "failed to add design")
		return
	}
	saved, err := s.records.AddDesign(r.Context(), design)
	if err != nil {
		s.respondError(w, r, err, "failed to add design")
		return
	}
	NewResponse().Status(http.StatusCreated).JSON(newDesignView(saved)).Write(w)
}
