package cli

var (
	EngineFactoryFor = engineFactory
	ModelFilePath    = modelFilePath
)
