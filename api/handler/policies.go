package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/qrawl/domain"
	"github.com/use-agent/qrawl/engine"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/policy"
)

// CreatePolicy returns a handler for POST /api/v1/policies.
//
// A policy is inferred for the domain, verified against the live site,
// and stored. Existing policies are never overwritten: delete first,
// then re-create.
func CreatePolicy(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PolicyCreateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondPlainError(c, models.ErrValidation("body", err.Error()))
			return
		}

		pol, err := eng.CreatePolicySeeded(c.Request.Context(), domain.Domain(req.Domain), req.Seed)
		if err != nil {
			respondPlainError(c, err)
			return
		}
		c.JSON(http.StatusOK, pol)
	}
}

// ListPolicies returns a handler for GET /api/v1/policies.
func ListPolicies(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		pols, err := eng.ListPolicies()
		if err != nil {
			respondPlainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(pols), "policies": pols})
	}
}

// ReadPolicy returns a handler for GET /api/v1/policies/:domain.
func ReadPolicy(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		pol, err := eng.ReadPolicy(c.Param("domain"))
		if err != nil {
			respondPlainError(c, err)
			return
		}
		c.JSON(http.StatusOK, pol)
	}
}

// UpdatePolicy returns a handler for PUT /api/v1/policies/:domain.
//
// The path names the domain; the body carries the new config. The
// policy must validate statically and produce content against the live
// site before it is stored.
func UpdatePolicy(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var pol policy.Policy
		if err := c.ShouldBindJSON(&pol); err != nil {
			respondPlainError(c, models.ErrValidation("body", err.Error()))
			return
		}

		canonical := domain.Canonicalize(c.Param("domain"))
		if canonical == "" {
			respondPlainError(c, models.ErrMissingDomain())
			return
		}
		pol.Domain = canonical

		if err := eng.UpdatePolicyChecked(c.Request.Context(), &pol); err != nil {
			respondPlainError(c, err)
			return
		}
		c.JSON(http.StatusOK, pol)
	}
}

// DeletePolicy returns a handler for DELETE /api/v1/policies/:domain.
//
// The reserved name "all" is rejected here; wiping every policy goes
// through DELETE /api/v1/policies with an explicit confirmation body.
func DeletePolicy(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		target := c.Param("domain")
		if strings.EqualFold(target, "all") {
			respondPlainError(c, models.ErrValidation("domain",
				`use DELETE /policies with {"confirm": true} to wipe all policies`))
			return
		}
		if err := eng.DeletePolicy(target); err != nil {
			respondPlainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": domain.Canonicalize(target)})
	}
}

// DeleteAllPolicies returns a handler for DELETE /api/v1/policies.
// Refuses unless the body carries {"confirm": true}.
func DeleteAllPolicies(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.PoliciesDeleteRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondPlainError(c, models.ErrValidation("body", err.Error()))
			return
		}
		if !req.Confirm {
			respondPlainError(c, models.ErrValidation("confirm", "must be true to delete all policies"))
			return
		}
		if err := eng.DeletePolicy("all"); err != nil {
			respondPlainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": "all"})
	}
}

// AuditPolicies returns a handler for GET /api/v1/policies/audit.
//
// Every stored policy is re-verified against its live site. Pass
// verbose=true to echo each policy's config alongside the outcome.
func AuditPolicies(eng *engine.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		verbose, _ := strconv.ParseBool(c.DefaultQuery("verbose", "false"))

		entries, err := eng.AuditPolicies(c.Request.Context(), verbose)
		if err != nil {
			respondPlainError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": len(entries), "results": entries})
	}
}

// respondPlainError writes an error envelope without timing fields, for
// endpoints that are not extractions.
func respondPlainError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": models.DetailOf(err)})
}
