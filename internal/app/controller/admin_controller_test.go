package controller

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threemeal/threemeal-backend/internal/app/model"
)

func TestChefApplyController_ApplyAndStatus(t *testing.T) {
	env := setupControllerTest(t)
	_, user := env.createUser(t, "cook", model.RoleCustomer)

	w := env.do(t, http.MethodGet, "/api/v1/chef/apply", user, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/chef/apply", user, gin.H{"content": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/chef/apply", user, gin.H{"content": "I run a bakery"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodPost, "/api/v1/chef/apply", user, gin.H{"content": "again"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "APPLY_ALREADY_APPLIED", decode(t, w)["error"])

	w = env.do(t, http.MethodGet, "/api/v1/chef/apply", user, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"waiting"`)
}

func TestAdminController_ApproveGrantsChefAccess(t *testing.T) {
	env := setupControllerTest(t)
	_, user := env.createUser(t, "cook", model.RoleCustomer)
	_, admin := env.createUser(t, "admin", model.RoleCustomer, model.RoleAdmin)

	w := env.do(t, http.MethodPost, "/api/v1/chef/apply", user, gin.H{"content": "I run a bakery"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, http.MethodPost, "/api/v1/chef/meals", user, mealBody("Bread", "94107"))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/admin/applies", user, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/admin/applies?status=waiting", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	require.Equal(t, float64(1), body["count"])
	applyID := uint(body["applies"].([]interface{})[0].(map[string]interface{})["id"].(float64))

	w = env.do(t, http.MethodGet, "/api/v1/admin/applies?status=pending", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/applies/%d/approve", applyID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/applies/%d/refuse", applyID), admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// roles are loaded per request, so the same token now carries chef access
	env.createMeal(t, user, "Bread", "94107")

	w = env.do(t, http.MethodGet, "/api/v1/admin/applies/9999", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminController_MealCuration(t *testing.T) {
	env := setupControllerTest(t)
	_, chef := env.createUser(t, "chef", model.RoleCustomer, model.RoleChef)
	_, admin := env.createUser(t, "admin", model.RoleCustomer, model.RoleAdmin)
	soup := env.createMeal(t, chef, "Soup", "94107")
	env.createMeal(t, chef, "Stew", "10001")

	w := env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/meals/%d/featured", soup), admin, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/meals/%d/featured", soup), chef, gin.H{"featured": true})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/admin/meals/%d/featured", soup), admin, gin.H{"featured": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["meal"].(map[string]interface{})["is_selected"])

	tests := map[string]float64{
		"/api/v1/admin/meals/all":                    2,
		"/api/v1/admin/meals/selected":               1,
		"/api/v1/admin/meals/unselected":             1,
		"/api/v1/admin/meals/all?zipcode=10001":      1,
		"/api/v1/admin/meals/selected?zipcode=10001": 0,
	}
	for path, want := range tests {
		w := env.do(t, http.MethodGet, path, admin, nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		assert.Equal(t, want, decode(t, w)["count"], path)
	}

	w = env.do(t, http.MethodGet, "/api/v1/admin/meals/popular", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/admin/meals/all?zipcode=12", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
