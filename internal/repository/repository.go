// Package repository contains the data access interfaces. Implementations
// live in subpackages (postgres today); hand-written testify mocks live in
// mocks.
package repository
