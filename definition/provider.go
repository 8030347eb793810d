package definition

// Provider is the interface that describes an object
// that can provide process definitions from a URI
type Provider interface {

	// GetDefinition retrieves the process definition for the specified uri
	GetDefinition(uri string) (*DefinitionRep, error)
}
