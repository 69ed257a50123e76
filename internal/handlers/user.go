package handlers

import (
	"net/http"
	"strings"

	"gestionale/internal/audit"
	"gestionale/internal/database"
	"gestionale/internal/middleware"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

var userOrdering = map[string]string{
	"username":   "username",
	"email":      "email",
	"role":       "role",
	"created_at": "created_at",
}

type userRequest struct {
	Username  *string          `json:"username"`
	Email     *string          `json:"email"`
	FirstName *string          `json:"first_name"`
	LastName  *string          `json:"last_name"`
	Password  *string          `json:"password"`
	Role      *models.UserRole `json:"role"`
	IsActive  *bool            `json:"is_active"`
}

func (r userRequest) apply(u *models.User, fieldErrors map[string]any) {
	if r.Username != nil {
		u.Username = strings.TrimSpace(*r.Username)
	}
	if r.Email != nil {
		u.Email = strings.TrimSpace(*r.Email)
	}
	if r.FirstName != nil {
		u.FirstName = strings.TrimSpace(*r.FirstName)
	}
	if r.LastName != nil {
		u.LastName = strings.TrimSpace(*r.LastName)
	}
	if r.Role != nil {
		switch *r.Role {
		case models.RoleAdmin, models.RoleOperator, models.RoleViewer:
			u.Role = *r.Role
		default:
			fieldErrors["role"] = "Valore non ammesso."
		}
	}
	if r.IsActive != nil {
		u.IsActive = *r.IsActive
	}
	if r.Password != nil && *r.Password != "" {
		if len(*r.Password) < 8 {
			fieldErrors["password"] = "Minimo 8 caratteri."
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*r.Password), bcrypt.DefaultCost)
		if err != nil {
			fieldErrors["password"] = "Password non valida."
			return
		}
		u.PasswordHash = string(hash)
	}
}

// userAuditView never includes the password hash.
func userAuditView(u *models.User) map[string]any {
	if u == nil {
		return map[string]any{}
	}
	return map[string]any{
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"role":       string(u.Role),
		"is_active":  u.IsActive,
	}
}

func ListUsers(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.User{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if role := c.Query("role"); role != "" {
		q = q.Where("role = ?", role)
	}
	if active := c.Query("is_active"); active != "" {
		q = q.Where("is_active = ?", database.IsTruthy(active))
	}
	q = applySearch(q, p.Search, "username", "email", "first_name", "last_name")
	q = applyOrdering(q, p.Ordering, userOrdering, "username")

	var rows []models.User
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}

func GetUser(c *gin.Context) {
	obj, ok := getEntity[models.User](c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, obj)
}

func CreateUser(c *gin.Context) {
	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	obj := models.User{Role: models.RoleViewer, IsActive: true}
	fieldErrors := map[string]any{}
	req.apply(&obj, fieldErrors)

	if obj.Username == "" {
		fieldErrors["username"] = "Campo obbligatorio."
	}
	if obj.PasswordHash == "" && fieldErrors["password"] == nil {
		fieldErrors["password"] = "Campo obbligatorio."
	}
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}

	if err := database.DB.Create(&obj).Error; err != nil {
		if ve := database.AsValidationError(err, map[string]database.ConstraintMessage{
			"idx_users_username": {Field: "username", Column: "username", Message: "Username già in uso."},
		}); ve != nil {
			fail(c, ve)
			return
		}
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   middleware.CurrentUser(c),
		Action:  models.ActionCreate,
		Target:  &obj,
		Changes: audit.BuildChanges(map[string]any{}, userAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusCreated, &obj)
}

func UpdateUser(c *gin.Context) {
	obj, ok := getEntity[models.User](c, false)
	if !ok {
		return
	}

	var req userRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	before := userAuditView(obj)

	fieldErrors := map[string]any{}
	req.apply(obj, fieldErrors)
	if obj.Username == "" {
		fieldErrors["username"] = "Campo obbligatorio."
	}
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}

	if err := database.DB.Save(obj).Error; err != nil {
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   middleware.CurrentUser(c),
		Action:  models.ActionUpdate,
		Target:  obj,
		Changes: audit.BuildChanges(before, userAuditView(obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusOK, obj)
}

func DeleteUser(c *gin.Context) { softDeleteEntity[models.User](c) }

func RestoreUser(c *gin.Context) { restoreEntity[models.User](c) }
