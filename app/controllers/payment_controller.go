package controllers

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/crafthaven/crafthaven/app/models"
	"github.com/crafthaven/crafthaven/app/repository"
	"github.com/crafthaven/crafthaven/internal/pkg/gateway"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
)

// PaymentController owns the inbound payment-gateway webhook surface. The
// verifier and committer are injected fully configured; a request never
// re-reads merchant credentials.
type PaymentController struct {
	verifier  *gateway.Verifier
	committer *gateway.Committer
	users     repository.UserRepository
	resultURL string
}

func NewPaymentController(verifier *gateway.Verifier, committer *gateway.Committer, users repository.UserRepository, resultURL string) *PaymentController {
	if resultURL == "" {
		resultURL = "/payment/result"
	}
	return &PaymentController{
		verifier:  verifier,
		committer: committer,
		users:     users,
		resultURL: resultURL,
	}
}

// HandleSuccess processes the gateway's success callback and answers with a
// 303 redirect to the client result page. Digest verification happens before
// anything is persisted.
func (pc *PaymentController) HandleSuccess(c *fiber.Ctx) error {
	return pc.handleRedirecting(c)
}

// HandleFailure processes the gateway's failure callback. Same pipeline as
// success: the committer branches on the verified status field, not on which
// route the gateway happened to call.
func (pc *PaymentController) HandleFailure(c *fiber.Ctx) error {
	return pc.handleRedirecting(c)
}

func (pc *PaymentController) handleRedirecting(c *fiber.Ctx) error {
	cb := gateway.CallbackFromForm(func(key string) string { return c.FormValue(key) })

	if err := pc.verifier.Verify(cb); err != nil {
		log.Warnf("[payment] callback for txn %s rejected: %v", cb.TxnID, err)
		return pc.redirectResult(c, &gateway.Result{
			GatewayTxnID: cb.GatewayTxnID,
			Status:       "invalid",
			Message:      "payment verification failed",
		})
	}

	// broken optional slots degrade to nil here; the committer rejects what
	// it cannot proceed without
	detail, _ := gateway.DecodePayloads(cb, false)

	result, err := pc.committer.Commit(c.Context(), cb, detail)
	if err != nil {
		log.Errorf("[payment] committing txn %s failed: %v", cb.TxnID, err)
		message := "payment processing failed"
		if errors.Is(err, gateway.ErrOrderPlacement) {
			message = err.Error()
		}
		return pc.redirectResult(c, &gateway.Result{
			GatewayTxnID: cb.GatewayTxnID,
			Status:       "failed",
			Message:      message,
		})
	}
	return pc.redirectResult(c, result)
}

// HandleVerify is the synchronous verification endpoint. It commits exactly
// like the redirect paths but answers JSON for server-to-server callers.
func (pc *PaymentController) HandleVerify(c *fiber.Ctx) error {
	cb := gateway.CallbackFromForm(func(key string) string { return c.FormValue(key) })

	if err := pc.verifier.Verify(cb); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"success": false,
			"message": "payment verification failed",
		})
	}

	detail, err := gateway.DecodePayloads(cb, true)
	if err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"success": false,
			"message": "callback payload carries no user identity",
		})
	}

	result, err := pc.committer.Commit(c.Context(), cb, detail)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": err.Error(),
		})
	}

	message := result.Message
	if message == "" {
		message = fmt.Sprintf("transaction %s recorded", result.Reference)
	}
	return c.JSON(fiber.Map{
		"success": result.Status == "success",
		"message": message,
	})
}

// waivedCheckoutRequest is the JSON body of the skip-payment path. The caller
// identifies the account either by id or by email.
type waivedCheckoutRequest struct {
	UserID uint                 `json:"user_id"`
	Email  string               `json:"email"`
	Order  *gateway.OrderDetail `json:"order"`
	Extra  *gateway.ExtraDetail `json:"extra"`
}

// HandleWaivedCheckout places an order without a gateway payment. The email
// domain allow-list check runs server-side against the stored user record,
// never against client input.
func (pc *PaymentController) HandleWaivedCheckout(c *fiber.Ctx) error {
	var req waivedCheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Order == nil || (req.UserID == 0 && req.Email == "") {
		return jsonError(c, fiber.StatusBadRequest, "order and user_id or email are required")
	}

	user, err := pc.resolveWaivedUser(req)
	if err != nil {
		return jsonError(c, fiber.StatusNotFound, "user not found")
	}

	result, err := pc.committer.CommitWaived(c.Context(), user.ID, user.Email, req.Order, req.Extra)
	if err != nil {
		if errors.Is(err, gateway.ErrWaiverNotAllowed) {
			return jsonError(c, fiber.StatusForbidden, "payment cannot be waived for this account")
		}
		log.Errorf("[payment] waived checkout for user %d failed: %v", user.ID, err)
		return jsonError(c, fiber.StatusInternalServerError, "checkout failed")
	}

	return c.JSON(fiber.Map{
		"reference": result.Reference,
		"order_id":  result.OrderID,
		"status":    result.Status,
	})
}

// resolveWaivedUser loads the stored user record the allow-list check runs
// against, by id when given, by email otherwise.
func (pc *PaymentController) resolveWaivedUser(req waivedCheckoutRequest) (*models.User, error) {
	if req.UserID != 0 {
		return pc.users.GetByID(req.UserID)
	}
	return pc.users.GetByEmail(req.Email)
}

// redirectResult shapes the normalized query string for the client result
// page and answers 303 so the browser re-requests with GET.
func (pc *PaymentController) redirectResult(c *fiber.Ctx, result *gateway.Result) error {
	q := url.Values{}
	q.Set("reference", result.Reference)
	q.Set("gateway_txn_id", result.GatewayTxnID)
	q.Set("status", result.Status)
	q.Set("amount", strconv.FormatFloat(result.Amount, 'f', 2, 64))
	if result.Message != "" {
		q.Set("message", result.Message)
	}
	if result.OrderID != 0 {
		q.Set("order_id", strconv.FormatUint(uint64(result.OrderID), 10))
	}
	return c.Redirect(pc.resultURL+"?"+q.Encode(), fiber.StatusSeeOther)
}
