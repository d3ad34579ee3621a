package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docpipe/docpipe/pkg/models"
	"github.com/docpipe/docpipe/pkg/persistence/file"
	"github.com/docpipe/docpipe/pkg/registry"
	"github.com/docpipe/docpipe/pkg/services"
	"github.com/docpipe/docpipe/pkg/web"
)

func setupTestApp(t *testing.T) (*fiber.App, *services.PipelineService) {
	t.Helper()

	persistence, err := file.NewPersistence(t.TempDir())
	require.NoError(t, err)

	t.Cleanup(func() { _ = persistence.Close(context.Background()) })

	pipelineService := services.NewPipelineService(persistence, nil)
	registryInstance := registry.NewRegistry(slog.Default())
	registryInstance.RegisterDefaultNodes()

	handlers := web.NewAPIHandlers(
		pipelineService,
		validator.New(validator.WithRequiredStructEnabled()),
		registryInstance,
	)

	app := fiber.New()
	handlers.Register(app)

	return app, pipelineService
}

func linearRequest() web.CreatePipelineRequest {
	sourceID := models.NewNodeID().String()
	sinkID := models.NewNodeID().String()

	return web.CreatePipelineRequest{
		Name:        "Invoice Intake",
		Description: "Moves invoices from the inbox to the archive",
		Owner:       "docs-team",
		Nodes: []models.PipelineNode{
			{ID: sourceID, Data: models.SourceData{Name: "inbox"}},
			{ID: sinkID, Data: models.SinkData{Name: "archive"}},
		},
		Edges: []models.PipelineEdge{
			{From: sourceID, To: sinkID},
		},
	}
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	responseBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, responseBody
}

func TestAPIHandlers_CreatePipeline(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/pipelines", linearRequest())
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created models.Pipeline
	require.NoError(t, json.Unmarshal(body, &created))
	assert.Equal(t, "Invoice Intake", created.Name)
	assert.Equal(t, "docs-team", created.Owner)
	assert.NotEmpty(t, created.ID)
	assert.Len(t, created.Nodes, 2)
}

func TestAPIHandlers_CreatePipeline_InvalidName(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	request := linearRequest()
	request.Name = "ab"

	resp, _ := doJSON(t, app, http.MethodPost, "/pipelines", request)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_CreatePipeline_Conflict(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	request := linearRequest()
	request.ID = "pl-dup"

	resp, _ := doJSON(t, app, http.MethodPost, "/pipelines", request)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPost, "/pipelines", request)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAPIHandlers_GetPipeline(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	created, err := service.Create(context.Background(), linearRequest().ToPipeline())
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodGet, "/pipelines/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var fetched models.Pipeline
	require.NoError(t, json.Unmarshal(body, &fetched))
	assert.Equal(t, created.ID, fetched.ID)

	source, ok := fetched.Nodes[0].Data.(models.SourceData)
	require.True(t, ok)
	assert.Equal(t, "inbox", source.Name)
}

func TestAPIHandlers_GetPipeline_NotFound(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodGet, "/pipelines/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_ListPipelines(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	_, err := service.Create(context.Background(), linearRequest().ToPipeline())
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodGet, "/pipelines", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, 1, listing.TotalCount)
}

func TestAPIHandlers_UpdatePipeline(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	created, err := service.Create(context.Background(), linearRequest().ToPipeline())
	require.NoError(t, err)

	request := linearRequest()
	request.Name = "Invoice Intake v2"

	resp, body := doJSON(t, app, http.MethodPut, "/pipelines/"+created.ID, request)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var updated models.Pipeline
	require.NoError(t, json.Unmarshal(body, &updated))
	assert.Equal(t, "Invoice Intake v2", updated.Name)
	assert.Equal(t, created.ID, updated.ID)
}

func TestAPIHandlers_DeletePipeline(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	created, err := service.Create(context.Background(), linearRequest().ToPipeline())
	require.NoError(t, err)

	resp, _ := doJSON(t, app, http.MethodDelete, "/pipelines/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, "/pipelines/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_CompilePipeline(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	created, err := service.Create(context.Background(), linearRequest().ToPipeline())
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodPost, "/pipelines/"+created.ID+"/compile", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var summary services.CompileSummary
	require.NoError(t, json.Unmarshal(body, &summary))
	assert.Equal(t, 2, summary.NodeCount)
	assert.Len(t, summary.Order, 2)
}

func TestAPIHandlers_CompilePipeline_InvalidDefinition(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	nodeA := models.NewNodeID().String()
	nodeB := models.NewNodeID().String()

	definition := &models.Pipeline{
		Name: "cyclic pipeline",
		Nodes: []models.PipelineNode{
			{ID: nodeA, Data: models.TransformData{Name: "a"}},
			{ID: nodeB, Data: models.TransformData{Name: "b"}},
		},
		Edges: []models.PipelineEdge{
			{From: nodeA, To: nodeB},
			{From: nodeB, To: nodeA},
		},
	}

	created, err := service.Create(context.Background(), definition)
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodPost, "/pipelines/"+created.ID+"/compile", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "invalid definition")
}

func TestAPIHandlers_GetPipelineRuns(t *testing.T) {
	t.Parallel()

	app, service := setupTestApp(t)

	created, err := service.Create(context.Background(), linearRequest().ToPipeline())
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodGet, "/pipelines/"+created.ID+"/runs", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		TotalCount int `json:"total_count"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	assert.Equal(t, 0, listing.TotalCount)
}

func TestAPIHandlers_GetNodeTypes(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/nodes", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		NodeTypes []web.NodeTypeResponse `json:"node_types"`
	}
	require.NoError(t, json.Unmarshal(body, &listing))
	require.Len(t, listing.NodeTypes, 4)
	assert.Equal(t, "ingest", listing.NodeTypes[0].ID)
	assert.NotNil(t, listing.NodeTypes[0].Schema)
}

func TestAPIHandlers_CreateNode(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/nodes/switch", map[string]any{
		"name": "by-type",
		"definition": map[string]any{
			"branches": []any{
				map[string]any{
					"condition": map[string]any{"kind": "file_extension", "extension": "pdf"},
					"target":    "pdf",
				},
			},
			"default": "rest",
		},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data, err := models.UnmarshalNodeData(body)
	require.NoError(t, err)

	switchData, ok := data.(models.SwitchData)
	require.True(t, ok)
	assert.Equal(t, []string{"pdf", "rest"}, switchData.OutputPorts())
}

func TestAPIHandlers_CreateNode_SchemaViolation(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, _ := doJSON(t, app, http.MethodPost, "/nodes/ingest", map[string]any{
		"name": "inbox",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestAPIHandlers_HealthCheck(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "healthy")
}
