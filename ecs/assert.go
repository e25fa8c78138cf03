//go:build !ecsrelease

package ecs

// debugAssertions guards handle validity checks on handle-scoped operations.
// Building with the ecsrelease tag compiles them out.
const debugAssertions = true
