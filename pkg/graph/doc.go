// Package graph defines the design graph types for knotview.
// The design graph is an immutable DAG of spline primitives (curves,
// surfaces, volumes), transforms and groups that describes a scene.
package graph
