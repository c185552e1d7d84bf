// Package web provides the HTTP gateway between the host platform, the
// workflow store and the workflow engine.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/dukex/swf-backend/pkg/engine"
	"github.com/dukex/swf-backend/pkg/persistence"
	"github.com/dukex/swf-backend/pkg/supervisor"
	"github.com/dukex/swf-backend/pkg/upstream"
	"github.com/dukex/swf-backend/pkg/workflow"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// Engine is the workflow engine surface used by the gateway.
type Engine interface {
	Tags(ctx context.Context) ([]engine.Tag, error)
	Source(ctx context.Context, workflowID string) (*engine.Source, error)
	Execute(ctx context.Context, workflowID string, input []byte) (*upstream.Response, error)
	Instances(ctx context.Context) (*upstream.Response, error)
	Instance(ctx context.Context, instanceID string) (*upstream.Response, error)
}

// Catalog is the host action catalog surface exposed to the engine.
type Catalog interface {
	List(ctx context.Context) (*upstream.Response, error)
	Invoke(ctx context.Context, actionID string, body []byte) (*upstream.Response, error)
}

// EngineStatus reports the supervised engine record.
type EngineStatus interface {
	Handle() supervisor.Handle
}

type APIHandlers struct {
	persistence persistence.Persistence
	engine      Engine
	catalog     Catalog
	status      EngineStatus
	validator   *validator.Validate
	logger      *slog.Logger
}

func NewAPIHandlers(
	persistence persistence.Persistence,
	engine Engine,
	catalog Catalog,
	status EngineStatus,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		persistence: persistence,
		engine:      engine,
		catalog:     catalog,
		status:      status,
		validator:   validator,
		logger:      logger.With("module", "web"),
	}
}

func passthrough(c fiber.Ctx, status int, resp *upstream.Response) error {
	if resp.ContentType != "" {
		c.Set(fiber.HeaderContentType, resp.ContentType)
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}

	return c.Status(status).Send(resp.Body)
}

// requestBody returns the raw JSON body, defaulting to an empty object.
func requestBody(c fiber.Ctx) ([]byte, bool) {
	body := c.Body()
	if len(body) == 0 {
		return []byte("{}"), true
	}

	return body, json.Valid(body)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	return c.JSON(HealthResponse{Status: "ok"})
}

// GetItems lists the workflows deployed in the engine.
func (h *APIHandlers) GetItems(c fiber.Ctx) error {
	tags, err := h.engine.Tags(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	items := make([]SwfItem, 0, len(tags))
	for _, tag := range tags {
		items = append(items, SwfItem{
			ID:          tag.Name,
			Name:        tag.Name,
			Description: tag.Description,
		})
	}

	return c.JSON(SwfListResult{
		Items:      items,
		Limit:      0,
		Offset:     0,
		TotalCount: len(items),
	})
}

// GetItem returns one deployed workflow with its definition.
func (h *APIHandlers) GetItem(c fiber.Ctx) error {
	id := c.Params("swfId")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	source, err := h.engine.Source(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	definition, err := source.Indented()
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(SwfItem{
		ID:          id,
		Name:        source.Name,
		Description: source.Description,
		Definition:  definition,
	})
}

// Execute starts a workflow instance; the engine status and body are
// returned verbatim.
func (h *APIHandlers) Execute(c fiber.Ctx) error {
	id := c.Params("swfId")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	body, ok := requestBody(c)
	if !ok {
		return badRequest(c, "Invalid JSON format")
	}

	resp, err := h.engine.Execute(c.Context(), id, body)
	if err != nil {
		return handleError(c, err)
	}

	return passthrough(c, resp.StatusCode, resp)
}

func (h *APIHandlers) GetInstances(c fiber.Ctx) error {
	resp, err := h.engine.Instances(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return passthrough(c, fiber.StatusOK, resp)
}

func (h *APIHandlers) GetInstance(c fiber.Ctx) error {
	id := c.Params("instanceId")
	if id == "" {
		return badRequest(c, "Instance ID is required")
	}

	resp, err := h.engine.Instance(c.Context(), id)
	if err != nil {
		return handleError(c, err)
	}

	return passthrough(c, fiber.StatusOK, resp)
}

// CreateWorkflow stores a definition either fetched from the `url` query
// parameter or given inline.
func (h *APIHandlers) CreateWorkflow(c fiber.Ctx) error {
	var (
		created *workflow.Item
		err     error
	)

	if source := c.Query("url"); strings.Contains(source, "http") {
		created, err = h.persistence.SaveFromURL(c.Context(), source)
	} else {
		var req CreateWorkflowRequest
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}

		if err := h.validator.Struct(req); err != nil {
			return badRequest(c, err.Error())
		}

		definition, parseErr := workflow.Deserialize(req.Definition)
		if parseErr != nil {
			return handleError(c, parseErr)
		}

		created, err = h.persistence.Save(c.Context(), &workflow.Item{URI: req.URI, Definition: definition})
	}

	if err != nil {
		return handleError(c, err)
	}

	encoded, err := json.Marshal(created)
	if err != nil {
		return handleError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(SwfItem{
		ID:         created.Definition.ID,
		Definition: string(encoded),
	})
}

// GetWorkflow reads one stored definition.
func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	definition, err := h.persistence.Get(c.Context(), c.Params("resource"))
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(definition)
}

// DeleteWorkflow removes a stored definition; deleting a missing one succeeds.
func (h *APIHandlers) DeleteWorkflow(c fiber.Ctx) error {
	if err := h.persistence.Delete(c.Context(), c.Params("resource")); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetSpecs(c fiber.Ctx) error {
	specs, err := h.persistence.ListSpecs(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return c.JSON(specs)
}

// RefreshActionsOpenAPI regenerates the actions OpenAPI document from the catalog.
func (h *APIHandlers) RefreshActionsOpenAPI(c fiber.Ctx) error {
	if err := h.persistence.SaveActionsOpenAPI(c.Context()); err != nil {
		return handleError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetEngine(c fiber.Ctx) error {
	return c.JSON(h.status.Handle())
}

// GetActions lists the host actions for the engine.
func (h *APIHandlers) GetActions(c fiber.Ctx) error {
	resp, err := h.catalog.List(c.Context())
	if err != nil {
		return handleError(c, err)
	}

	return passthrough(c, resp.StatusCode, resp)
}

// InvokeAction runs a host action on behalf of the engine.
func (h *APIHandlers) InvokeAction(c fiber.Ctx) error {
	id := c.Params("actionId")
	if id == "" {
		return badRequest(c, "Action ID is required")
	}

	body, ok := requestBody(c)
	if !ok {
		return badRequest(c, "Invalid JSON format")
	}

	h.logger.DebugContext(c.Context(), "Invoking host action", "action_id", id)

	resp, err := h.catalog.Invoke(c.Context(), id, body)
	if err != nil {
		return handleError(c, err)
	}

	return passthrough(c, resp.StatusCode, resp)
}

// Register mounts every route on router.
func (h *APIHandlers) Register(router fiber.Router) {
	router.Get("/health", h.HealthCheck)

	router.Get("/items", h.GetItems)
	router.Get("/items/:swfId", h.GetItem)
	router.Post("/execute/:swfId", h.Execute)
	router.Get("/instances", h.GetInstances)
	router.Get("/instances/:instanceId", h.GetInstance)

	w := router.Group("/workflows")
	w.Post("/", h.CreateWorkflow)
	w.Get("/:resource", h.GetWorkflow)
	w.Delete("/:resource", h.DeleteWorkflow)

	router.Get("/specs", h.GetSpecs)
	router.Post("/specs/actions-openapi", h.RefreshActionsOpenAPI)
	router.Get("/engine", h.GetEngine)

	router.Get("/actions", h.GetActions)
	router.Post("/actions/:actionId", h.InvokeAction)
}
