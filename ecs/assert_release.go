//go:build ecsrelease

package ecs

const debugAssertions = false
