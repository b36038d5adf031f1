// Package domain defines the core business entities for apiforge.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - DocumentMetadata: An ingested document and its table of contents
//   - DocumentContent: One heading-addressed section with its embedding
//   - FunctionalRequirementGroup: A named requirement cluster driving generation
//   - APIInfo: A validated API endpoint description
//   - TestSuite / TestCase: Generated test artefacts
//   - GenerationState: The typed accumulator threaded through a generation run
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
