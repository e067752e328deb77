// Package template defines the engine-agnostic contracts the plugin renderer
// builds on: the Template and Engine seams, the scoped ambient Context, and
// RenderInContext, which renders a template fragment against a borrowed
// context without leaking overlay variables back into the caller's scope.
package template
