package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/logging"
	"github.com/dmitrijs2005/plantops/internal/server/generator"
	"github.com/dmitrijs2005/plantops/internal/server/models"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/taskmasters"
	"github.com/dmitrijs2005/plantops/internal/server/services"
)

type UserService interface {
	Me(ctx context.Context, uid string) (*models.User, error)
	UpdatePermissions(ctx context.Context, actorUID, targetUID string, raw map[string][]string) (*models.User, error)
}

type PlantService interface {
	List(ctx context.Context, uid string) ([]*models.Plant, error)
	Create(ctx context.Context, uid string, p *models.Plant) (*models.Plant, error)
}

type TaskMasterService interface {
	Create(ctx context.Context, uid string, in services.TaskMasterInput) (*models.TaskMaster, error)
	Get(ctx context.Context, uid, id string) (*models.TaskMaster, error)
	List(ctx context.Context, uid string, filter taskmasters.ListFilter) ([]*models.TaskMaster, error)
	Update(ctx context.Context, uid, id string, p services.TaskMasterPatch) (*models.TaskMaster, error)
	Deactivate(ctx context.Context, uid, id string) error
}

type TaskInstanceService interface {
	CreateFromMaster(ctx context.Context, uid, masterID string, scheduled *time.Time) (*models.TaskInstance, error)
	ListByMaster(ctx context.Context, uid, masterID string) ([]*models.TaskInstance, error)
	UpdateStatus(ctx context.Context, uid, id string, p services.StatusPatch) (*models.TaskInstance, error)
}

type AttachmentService interface {
	PresignUpload(ctx context.Context, uid, instanceID string) (*services.PresignedURL, error)
	PresignDownload(ctx context.Context, uid, instanceID, key string) (*services.PresignedURL, error)
	ConfirmUpload(ctx context.Context, uid, instanceID, key string) error
}

type GenerationService interface {
	Run(ctx context.Context, uid string) (generator.Result, error)
}

// Handler binds the HTTP routes to the application services.
type Handler struct {
	Users       UserService
	Plants      PlantService
	TaskMasters TaskMasterService
	Instances   TaskInstanceService
	Attachments AttachmentService
	Generation  GenerationService

	logger logging.Logger
}

func NewHandler(logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Handler{logger: logger.With("module", "httpapi")}
}

func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		abortWith(c, http.StatusBadRequest, common.ErrValidation.Error()+": "+err.Error())
		return false
	}
	return true
}

func (h *Handler) me(c *gin.Context) {
	u, err := h.Users.Me(c.Request.Context(), callerUID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

func (h *Handler) listPlants(c *gin.Context) {
	ps, err := h.Plants.List(c.Request.Context(), callerUID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	if ps == nil {
		ps = []*models.Plant{}
	}
	respond(c, http.StatusOK, ps)
}

func (h *Handler) createPlant(c *gin.Context) {
	var in struct {
		Code     string `json:"code"`
		Name     string `json:"name"`
		Location string `json:"location"`
		IsActive *bool  `json:"isActive"`
	}
	if !h.bind(c, &in) {
		return
	}

	p := &models.Plant{Code: in.Code, Name: in.Name, Location: in.Location, IsActive: true}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}

	created, err := h.Plants.Create(c.Request.Context(), callerUID(c), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, created)
}

func (h *Handler) listTaskMasters(c *gin.Context) {
	filter := taskmasters.ListFilter{
		PlantID:    c.Query("plantId"),
		AssigneeID: c.Query("assigneeId"),
		ActiveOnly: c.Query("active") == "true",
	}

	ms, err := h.TaskMasters.List(c.Request.Context(), callerUID(c), filter)
	if err != nil {
		h.fail(c, err)
		return
	}
	if ms == nil {
		ms = []*models.TaskMaster{}
	}
	respond(c, http.StatusOK, ms)
}

func (h *Handler) createTaskMaster(c *gin.Context) {
	var in services.TaskMasterInput
	if !h.bind(c, &in) {
		return
	}

	m, err := h.TaskMasters.Create(c.Request.Context(), callerUID(c), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, m)
}

func (h *Handler) getTaskMaster(c *gin.Context) {
	m, err := h.TaskMasters.Get(c.Request.Context(), callerUID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, m)
}

func (h *Handler) updateTaskMaster(c *gin.Context) {
	var p services.TaskMasterPatch
	if !h.bind(c, &p) {
		return
	}

	m, err := h.TaskMasters.Update(c.Request.Context(), callerUID(c), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, m)
}

func (h *Handler) deactivateTaskMaster(c *gin.Context) {
	if err := h.TaskMasters.Deactivate(c.Request.Context(), callerUID(c), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"id": c.Param("id"), "isActive": false})
}

func (h *Handler) createInstance(c *gin.Context) {
	var in struct {
		ScheduledDate *time.Time `json:"scheduledDate"`
	}
	if c.Request.ContentLength != 0 && !h.bind(c, &in) {
		return
	}

	inst, err := h.Instances.CreateFromMaster(c.Request.Context(), callerUID(c), c.Param("id"), in.ScheduledDate)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, inst)
}

func (h *Handler) listInstances(c *gin.Context) {
	is, err := h.Instances.ListByMaster(c.Request.Context(), callerUID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if is == nil {
		is = []*models.TaskInstance{}
	}
	respond(c, http.StatusOK, is)
}

func (h *Handler) updateInstanceStatus(c *gin.Context) {
	var p services.StatusPatch
	if !h.bind(c, &p) {
		return
	}

	inst, err := h.Instances.UpdateStatus(c.Request.Context(), callerUID(c), c.Param("id"), p)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, inst)
}

func (h *Handler) presignUpload(c *gin.Context) {
	u, err := h.Attachments.PresignUpload(c.Request.Context(), callerUID(c), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, u)
}

func (h *Handler) confirmUpload(c *gin.Context) {
	var in struct {
		Key string `json:"key"`
	}
	if !h.bind(c, &in) {
		return
	}

	if err := h.Attachments.ConfirmUpload(c.Request.Context(), callerUID(c), c.Param("id"), in.Key); err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"key": in.Key})
}

func (h *Handler) presignDownload(c *gin.Context) {
	key := c.Query("key")
	if key == "" {
		abortWith(c, http.StatusBadRequest, common.ErrValidation.Error()+": key is required")
		return
	}

	u, err := h.Attachments.PresignDownload(c.Request.Context(), callerUID(c), c.Param("id"), key)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}

func (h *Handler) runGeneration(c *gin.Context) {
	res, err := h.Generation.Run(c.Request.Context(), callerUID(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}

func (h *Handler) updatePermissions(c *gin.Context) {
	var in struct {
		ModulePermissions map[string][]string `json:"modulePermissions"`
	}
	if !h.bind(c, &in) {
		return
	}

	u, err := h.Users.UpdatePermissions(c.Request.Context(), callerUID(c), c.Param("uid"), in.ModulePermissions)
	if err != nil {
		h.fail(c, err)
		return
	}
	respond(c, http.StatusOK, u)
}
