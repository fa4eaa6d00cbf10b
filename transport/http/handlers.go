package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/certlayer/certlayer/core"
	"github.com/certlayer/certlayer/service"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// Handlers contains the HTTP handlers for the auth and registry endpoints.
type Handlers struct {
	auth        *service.AuthService
	registry    *service.RegistryService
	serviceName string
}

// NewHandlers creates the handler set.
func NewHandlers(auth *service.AuthService, registry *service.RegistryService, serviceName string) *Handlers {
	return &Handlers{
		auth:        auth,
		registry:    registry,
		serviceName: serviceName,
	}
}

// statusFor maps the error taxonomy onto client-facing status categories.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrInvalidWallet),
		errors.Is(err, core.ErrProtocolIDRequired),
		errors.Is(err, core.ErrOwnerWalletRequired):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrInvalidSignature),
		errors.Is(err, core.ErrChallengeNotFound),
		errors.Is(err, core.ErrSignatureMismatch),
		errors.Is(err, core.ErrSessionRequired):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrProtocolNotFound),
		errors.Is(err, core.ErrIncidentNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Challenge handles POST /auth/challenge.
func (h *Handlers) Challenge(c *gin.Context) {
	var req struct {
		Wallet string `json:"wallet" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	challenge, err := h.auth.IssueChallenge(c.Request.Context(), req.Wallet)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"wallet":    challenge.Wallet,
		"message":   challenge.Message,
		"expiresAt": challenge.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Verify handles POST /auth/verify: it verifies the signed challenge and
// mints the session.
func (h *Handlers) Verify(c *gin.Context) {
	var req struct {
		Wallet    string `json:"wallet" binding:"required"`
		Signature string `json:"signature" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	role, err := h.auth.VerifyAndConsume(c.Request.Context(), req.Wallet, req.Signature)
	if err != nil {
		fail(c, err)
		return
	}

	session, err := h.auth.CreateSession(c.Request.Context(), req.Wallet, role)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":     session.Token,
		"wallet":    session.Wallet,
		"role":      session.Role,
		"expiresAt": session.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Logout handles POST /auth/logout. Idempotent.
func (h *Handlers) Logout(c *gin.Context) {
	cred := credentialFrom(c)
	if err := h.auth.Revoke(c.Request.Context(), cred.SessionToken); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Health handles GET /health.
func (h *Handlers) Health(c *gin.Context) {
	protocols, incidents, err := h.registry.Counts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"service":   h.serviceName,
		"product":   "CertLayer",
		"protocols": protocols,
		"incidents": incidents,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// RegisterProtocol handles POST /v1/protocols/register.
func (h *Handlers) RegisterProtocol(c *gin.Context) {
	var req struct {
		ID               string          `json:"id"`
		Name             string          `json:"name"`
		Website          string          `json:"website"`
		ProtocolType     string          `json:"protocolType"`
		UptimeBps        int64           `json:"uptimeBps"`
		CoveragePoolUSDC decimal.Decimal `json:"coveragePoolUsdc"`
		OwnerWallet      string          `json:"ownerWallet"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	protocol, err := h.registry.RegisterProtocol(c.Request.Context(), credentialFrom(c), service.RegisterProtocolInput{
		ID:               req.ID,
		Name:             req.Name,
		Website:          req.Website,
		ProtocolType:     req.ProtocolType,
		UptimeBps:        req.UptimeBps,
		CoveragePoolUSDC: req.CoveragePoolUSDC,
		OwnerWallet:      req.OwnerWallet,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"protocol": protocol})
}

// ListProtocols handles GET /v1/protocols.
func (h *Handlers) ListProtocols(c *gin.Context) {
	protocols, err := h.registry.ListProtocols(c.Request.Context(), credentialFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": protocols})
}

// UpdateProtocol handles PATCH /v1/protocols/:id.
func (h *Handlers) UpdateProtocol(c *gin.Context) {
	var patch core.ProtocolPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	protocol, err := h.registry.UpdateProtocol(c.Request.Context(), credentialFrom(c), c.Param("id"), patch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"protocol": protocol})
}

// AddIncident handles POST /v1/incidents.
func (h *Handlers) AddIncident(c *gin.Context) {
	var req struct {
		ID         string `json:"id"`
		ProtocolID string `json:"protocolId" binding:"required"`
		Severity   string `json:"severity"`
		Summary    string `json:"summary"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "protocolId required"})
		return
	}

	incident, err := h.registry.AddIncident(c.Request.Context(), credentialFrom(c), service.AddIncidentInput{
		ID:         req.ID,
		ProtocolID: req.ProtocolID,
		Severity:   req.Severity,
		Summary:    req.Summary,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"incident": incident})
}

// ListIncidents handles GET /v1/incidents.
func (h *Handlers) ListIncidents(c *gin.Context) {
	incidents, err := h.registry.ListIncidents(c.Request.Context(), credentialFrom(c), c.Query("protocolId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": incidents})
}

// IncidentDecision handles POST /v1/incidents/decision.
func (h *Handlers) IncidentDecision(c *gin.Context) {
	var req struct {
		IncidentID string `json:"incidentId" binding:"required"`
		Decision   string `json:"decision" binding:"required"`
		Reason     string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "incidentId and decision required"})
		return
	}

	incident, err := h.registry.RecordIncidentDecision(c.Request.Context(), credentialFrom(c), req.IncidentID, req.Decision, req.Reason)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "incident": incident})
}

// UpsertCommitment handles POST /v1/commitments.
func (h *Handlers) UpsertCommitment(c *gin.Context) {
	var req struct {
		ProtocolID   string `json:"protocolId" binding:"required"`
		CommitmentID string `json:"commitmentId" binding:"required"`
		core.CommitmentPatch
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "protocolId and commitmentId required"})
		return
	}

	commitment, err := h.registry.UpsertCommitment(c.Request.Context(), credentialFrom(c), req.ProtocolID, req.CommitmentID, req.CommitmentPatch)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commitment": commitment})
}

// ListCommitments handles GET /v1/commitments.
func (h *Handlers) ListCommitments(c *gin.Context) {
	commitments, err := h.registry.ListCommitments(c.Request.Context(), credentialFrom(c), c.Query("protocolId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": commitments})
}

// Deposit handles POST /v1/pools/deposit.
func (h *Handlers) Deposit(c *gin.Context) {
	var req struct {
		ProtocolID string           `json:"protocolId" binding:"required"`
		Amount     *decimal.Decimal `json:"amount" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "protocolId and amount required"})
		return
	}

	protocol, err := h.registry.Deposit(c.Request.Context(), credentialFrom(c), req.ProtocolID, *req.Amount)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "protocol": protocol})
}

// RecomputeScore handles POST /v1/reputation/recompute.
func (h *Handlers) RecomputeScore(c *gin.Context) {
	var req struct {
		ProtocolID          string `json:"protocolId" binding:"required"`
		UptimeComponent     *int64 `json:"uptimeComponent"`
		IncidentComponent   *int64 `json:"incidentComponent"`
		ResponseComponent   *int64 `json:"responseComponent"`
		PoolHealthComponent *int64 `json:"poolHealthComponent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "protocolId required"})
		return
	}

	component := func(v *int64) int64 {
		if v == nil {
			return 7000
		}
		return *v
	}

	score, err := h.registry.RecomputeScore(c.Request.Context(), credentialFrom(c), req.ProtocolID, core.ScoreComponents{
		Uptime:     component(req.UptimeComponent),
		Incident:   component(req.IncidentComponent),
		Response:   component(req.ResponseComponent),
		PoolHealth: component(req.PoolHealthComponent),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"score": score})
}

// ReputationBoard handles GET /v1/reputation/protocols.
func (h *Handlers) ReputationBoard(c *gin.Context) {
	board, err := h.registry.ReputationBoard(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": board})
}
