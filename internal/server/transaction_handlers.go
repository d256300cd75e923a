package server

import (
	"foodshare/internal/models"
	"foodshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetTransactions handles GET /api/transactions: the caller's purchases and sales.
func (s *Server) GetTransactions(c *fiber.Ctx) error {
	txs, err := s.transactions.ListForUser(c.UserContext(), callerID(c))
	return respond(c, fiber.StatusOK, txs, err)
}

// GetTransaction handles GET /api/transactions/:id (participants only)
func (s *Server) GetTransaction(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	tx, err := s.transactions.Get(c.UserContext(), callerID(c), id)
	return respond(c, fiber.StatusOK, tx, err)
}

// CreateTransaction handles POST /api/transactions
func (s *Server) CreateTransaction(c *fiber.Ctx) error {
	var in service.CreateTransactionInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	tx, err := s.transactions.Create(c.UserContext(), callerID(c), in)
	return respond(c, fiber.StatusCreated, tx, err)
}

// UpdateTransaction handles PUT /api/transactions/:id (participants only)
func (s *Server) UpdateTransaction(c *fiber.Ctx) error {
	id, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var patch models.TransactionPatch
	if err := parseStrictBody(c, &patch, transactionDeniedFields); err != nil {
		return nil
	}
	tx, err := s.transactions.Update(c.UserContext(), callerID(c), id, patch)
	return respond(c, fiber.StatusOK, tx, err)
}

var transactionDeniedFields = map[string]string{
	"buyerId":   "The participants of a transaction cannot be changed",
	"sellerId":  "The participants of a transaction cannot be changed",
	"listingId": "The listing of a transaction cannot be changed",
}
