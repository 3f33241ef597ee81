// Package vm implements the tuploid type-and-value engine.
//
// This package contains:
//   - Interned strings (SymbolTable)
//   - Primitive, function and tuple type descriptors
//   - Tagged values and single-owner tuple storage
//   - Default construction
//   - Property access on static and dynamic tuples
//   - The assignment rules between static and dynamic tuples
package vm
