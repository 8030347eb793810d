package support

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/project-flogo/core/app/resource"
	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sequenceRep(id string) *definition.DefinitionRep {
	return &definition.DefinitionRep{
		ID:         id,
		Conditions: []*definition.ConditionRep{{ID: "i", Type: "input"}, {ID: "o", Type: "output"}},
		Tasks:      []*definition.TaskRep{{ID: "A"}, {ID: "B"}},
		Flows: []*definition.FlowRep{
			{From: "i", To: "A"}, {From: "A", To: "B"}, {From: "B", To: "o"},
		},
	}
}

// orphanRep has a task no token can ever reach
func orphanRep() *definition.DefinitionRep {
	rep := sequenceRep("orphan")
	rep.Tasks = append(rep.Tasks, &definition.TaskRep{ID: "X"})
	rep.Flows = append(rep.Flows, &definition.FlowRep{From: "X", To: "o"})
	return rep
}

func gzipped(t *testing.T, b []byte) []byte {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write(b)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestProcessManagerRegister(t *testing.T) {
	pm := NewProcessManager(nil)

	def, err := definition.NewDefinition(sequenceRep("seq"))
	require.NoError(t, err)

	report, err := pm.Register(def)
	require.NoError(t, err)
	assert.False(t, report.HasCritical())

	spec, exists := pm.Lookup("seq")
	require.True(t, exists)
	assert.Same(t, def, spec.Definition)

	def, err = definition.NewDefinition(orphanRep())
	require.NoError(t, err)

	report, err = pm.Register(def)
	assert.ErrorIs(t, err, model.ErrSpecViolation)
	require.NotNil(t, report)
	assert.True(t, report.HasCritical())

	_, exists = pm.Lookup("orphan")
	assert.False(t, exists)
}

func TestProcessManagerFileProvider(t *testing.T) {
	dir := t.TempDir()

	plain, err := json.Marshal(sequenceRep("plain"))
	require.NoError(t, err)
	plainPath := filepath.Join(dir, "plain.json")
	require.NoError(t, os.WriteFile(plainPath, plain, 0o600))

	compressed, err := json.Marshal(sequenceRep("compressed"))
	require.NoError(t, err)
	compressedPath := filepath.Join(dir, "compressed.json.gz")
	require.NoError(t, os.WriteFile(compressedPath, gzipped(t, compressed), 0o600))

	pm := NewProcessManager(nil)

	spec, err := pm.GetSpecification("file://" + plainPath)
	require.NoError(t, err)
	assert.Equal(t, "plain", spec.Definition.ID())

	cached, err := pm.GetSpecification("file://" + plainPath)
	require.NoError(t, err)
	assert.Same(t, spec, cached)

	spec, err = pm.GetSpecification("file://" + compressedPath)
	require.NoError(t, err)
	assert.Equal(t, "compressed", spec.Definition.ID())

	_, err = pm.GetSpecification("file://" + filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	_, err = pm.GetSpecification("ftp://specs/seq.json")
	assert.ErrorIs(t, err, model.ErrUnknownSpecification)
}

func TestProcessManagerHttpProvider(t *testing.T) {
	plain, err := json.Marshal(sequenceRep("remote"))
	require.NoError(t, err)
	compressed, err := json.Marshal(sequenceRep("remote-compressed"))
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("/remote", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(plain)
	})
	mux.HandleFunc("/compressed", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("workflow-compressed", "true")
		_, _ = w.Write([]byte(base64.StdEncoding.EncodeToString(gzipped(t, compressed))))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	pm := NewProcessManager(nil)

	spec, err := pm.GetSpecification(server.URL + "/remote")
	require.NoError(t, err)
	assert.Equal(t, "remote", spec.Definition.ID())

	spec, err = pm.GetSpecification(server.URL + "/compressed")
	require.NoError(t, err)
	assert.Equal(t, "remote-compressed", spec.Definition.ID())

	_, err = pm.GetSpecification(server.URL + "/missing")
	assert.Error(t, err)
}

func TestProcessManagerLoadResource(t *testing.T) {
	data, err := json.Marshal(sequenceRep("res"))
	require.NoError(t, err)

	pm := NewProcessManager(nil)

	_, err = pm.GetSpecification("res://workflow:res")
	assert.ErrorIs(t, err, model.ErrUnknownSpecification)

	res, err := pm.LoadResource(&resource.Config{ID: "workflow:res", Data: data})
	require.NoError(t, err)
	assert.Equal(t, ResTypeSpecification, res.Type())

	spec, err := pm.GetSpecification("res://workflow:res")
	require.NoError(t, err)
	assert.Same(t, res.Object(), spec.Definition)

	orphan, err := json.Marshal(orphanRep())
	require.NoError(t, err)
	_, err = pm.LoadResource(&resource.Config{ID: "workflow:orphan", Data: orphan})
	assert.ErrorIs(t, err, model.ErrSpecViolation)
}
