// Package template stores versioned per-(type, channel) content templates
// and renders channel-specific delivery content from them.
//
// Rendering never blocks dispatch: a missing template falls back to a plain
// renderer built from the notification's title and message, and a
// structurally broken template is reported through the logger and degrades
// to the same fallback. Variable substitution is whitelist-based - only
// variables declared on the template are substituted, and unknown
// placeholders stay literal in the output so authoring mistakes are visible
// instead of silently corrupting content.
package template
