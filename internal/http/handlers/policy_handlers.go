package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/http/respond"
)

// PolicyHandlers manages casbin policies; mounted behind the admin guard.
type PolicyHandlers struct {
	policies domain.PolicyService
}

// NewPolicyHandlers creates new policy handlers
func NewPolicyHandlers(policies domain.PolicyService) *PolicyHandlers {
	return &PolicyHandlers{policies: policies}
}

type policyReq struct {
	Sub string `json:"sub" binding:"required"`
	Obj string `json:"obj" binding:"required"`
	Act string `json:"act" binding:"required"`
}

func (h *PolicyHandlers) List(c *gin.Context) {
	respond.OK(c, http.StatusOK, "Policies retrieved successfully", h.policies.GetPolicies())
}

func (h *PolicyHandlers) Add(c *gin.Context) {
	var r policyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		respond.Error(c, domain.ErrValidation("sub, obj and act are required"))
		return
	}
	if err := h.policies.AddPolicy(r.Sub, r.Obj, r.Act); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusCreated, "Policy added", r)
}

func (h *PolicyHandlers) Remove(c *gin.Context) {
	var r policyReq
	if err := c.ShouldBindJSON(&r); err != nil {
		respond.Error(c, domain.ErrValidation("sub, obj and act are required"))
		return
	}
	if err := h.policies.RemovePolicy(r.Sub, r.Obj, r.Act); err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, http.StatusOK, "Policy removed", nil)
}
