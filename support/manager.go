package support

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/project-flogo/core/app/resource"
	"github.com/project-flogo/core/support"
	"github.com/project-flogo/core/support/log"
	"github.com/project-flogo/workflow/definition"
	"github.com/project-flogo/workflow/model"
	"github.com/project-flogo/workflow/validation"
)

const (
	uriSchemeFile  = "file://"
	uriSchemeHttp  = "http://"
	uriSchemeHttps = "https://"

	ResTypeSpecification = "workflow"
)

// Specification is a process definition that passed soundness validation
type Specification struct {
	Definition *definition.Definition
	Report     *validation.Report
}

// ProcessManager loads, validates and caches the specifications cases are created from.
// Specifications are registered directly, loaded as app resources, or fetched by
// uri through a definition.Provider.
type ProcessManager struct {
	mu       sync.RWMutex
	specs    map[string]*Specification
	provider definition.Provider
}

func NewProcessManager(provider definition.Provider) *ProcessManager {
	manager := &ProcessManager{specs: make(map[string]*Specification)}

	if provider != nil {
		manager.provider = provider
	} else {
		manager.provider = &BasicRemoteProvider{logger: logger}
	}

	return manager
}

// Register validates the definition and makes it available under its id.
// A definition with critical findings is rejected with a SpecViolation error.
func (pm *ProcessManager) Register(def *definition.Definition) (*validation.Report, error) {
	spec, err := validate(def)
	if err != nil {
		return spec.Report, err
	}

	pm.mu.Lock()
	pm.specs[def.ID()] = spec
	pm.mu.Unlock()

	logger.Infof("Registered specification '%s'", def.ID())
	return spec.Report, nil
}

// Lookup returns a registered specification
func (pm *ProcessManager) Lookup(specID string) (*Specification, bool) {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	spec, exists := pm.specs[specID]
	return spec, exists
}

// GetSpecification returns the specification registered under the uri, fetching,
// validating and caching it through the provider on first use
func (pm *ProcessManager) GetSpecification(uri string) (*Specification, error) {
	if spec, exists := pm.Lookup(uri); exists {
		return spec, nil
	}

	if strings.HasPrefix(uri, resource.UriScheme) {
		return nil, model.NewError(model.CodeUnknownSpecification, "resource '%s' not loaded", uri)
	}

	defRep, err := pm.provider.GetDefinition(uri)
	if err != nil {
		return nil, err
	}

	def, err := materialize(defRep)
	if err != nil {
		return nil, err
	}

	spec, err := validate(def)
	if err != nil {
		return nil, err
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	// another caller may have loaded it in the meantime
	if existing, exists := pm.specs[uri]; exists {
		return existing, nil
	}
	pm.specs[uri] = spec
	return spec, nil
}

// LoadResource loads a specification from an app resource, making it available
// under "res://<id>"
func (pm *ProcessManager) LoadResource(config *resource.Config) (*resource.Resource, error) {
	var defRep *definition.DefinitionRep
	err := json.Unmarshal(config.Data, &defRep)
	if err != nil {
		return nil, fmt.Errorf("error unmarshalling specification resource with id '%s', %s", config.ID, err.Error())
	}

	def, err := materialize(defRep)
	if err != nil {
		return nil, err
	}

	spec, err := validate(def)
	if err != nil {
		return nil, err
	}

	pm.mu.Lock()
	pm.specs[resource.UriScheme+config.ID] = spec
	pm.mu.Unlock()

	return resource.New(ResTypeSpecification, def), nil
}

func materialize(defRep *definition.DefinitionRep) (*definition.Definition, error) {
	def, err := definition.NewDefinition(defRep)
	if err != nil {
		return nil, model.NewError(model.CodeSpecViolation, "error materializing specification").Wrap(err)
	}
	return def, nil
}

func validate(def *definition.Definition) (*Specification, error) {
	report := validation.Validate(def)

	for _, f := range report.Warnings() {
		logger.Warnf("Specification '%s': %s", def.ID(), f.String())
	}

	spec := &Specification{Definition: def, Report: report}
	if err := report.Err(); err != nil {
		return spec, err
	}
	return spec, nil
}

// BasicRemoteProvider fetches json definitions from file and http(s) uris.
// Gzip compressed files and base64 encoded gzip http bodies are supported.
type BasicRemoteProvider struct {
	logger log.Logger
}

func (p *BasicRemoteProvider) GetDefinition(uri string) (*definition.DefinitionRep, error) {
	var defBytes []byte
	var err error

	switch {
	case strings.HasPrefix(uri, uriSchemeFile):
		defBytes, err = p.readFile(uri)
	case strings.HasPrefix(uri, uriSchemeHttp), strings.HasPrefix(uri, uriSchemeHttps):
		defBytes, err = p.fetch(uri)
	default:
		return nil, model.NewError(model.CodeUnknownSpecification, "unsupported uri '%s'", uri)
	}
	if err != nil {
		p.logger.Errorf(err.Error())
		return nil, err
	}

	var defRep *definition.DefinitionRep
	err = json.Unmarshal(defBytes, &defRep)
	if err != nil {
		return nil, fmt.Errorf("error unmarshalling specification with uri '%s', %s", uri, err.Error())
	}

	return defRep, nil
}

func (p *BasicRemoteProvider) readFile(uri string) ([]byte, error) {
	p.logger.Infof("Loading local specification: %s", uri)

	filePath, ok := support.URLStringToFilePath(uri)
	if !ok {
		return nil, fmt.Errorf("invalid file uri '%s'", uri)
	}

	readBytes, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("error reading specification with uri '%s', %s", uri, err.Error())
	}

	if isGzip(readBytes) {
		defBytes, err := unzip(readBytes)
		if err != nil {
			return nil, fmt.Errorf("error uncompressing specification with uri '%s', %s", uri, err.Error())
		}
		return defBytes, nil
	}
	return readBytes, nil
}

func (p *BasicRemoteProvider) fetch(uri string) ([]byte, error) {
	resp, err := http.Get(uri)
	if err != nil {
		return nil, fmt.Errorf("error getting specification with uri '%s', %s", uri, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("error getting specification with uri '%s', status code %d", uri, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading specification response body with uri '%s', %s", uri, err.Error())
	}

	if strings.EqualFold(resp.Header.Get("workflow-compressed"), "true") {
		decoded, err := decodeAndUnzip(string(body))
		if err != nil {
			return nil, fmt.Errorf("error decoding compressed specification with uri '%s', %s", uri, err.Error())
		}
		return decoded, nil
	}
	return body, nil
}

func isGzip(b []byte) bool {
	return len(b) > 2 && b[0] == 0x1f && b[1] == 0x8b
}

func decodeAndUnzip(encoded string) ([]byte, error) {
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, err
	}
	return unzip(decoded)
}

func unzip(compressed []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return io.ReadAll(r)
}
