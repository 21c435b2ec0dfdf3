package i18n

// Built-in English catalog. Other locales are fetched as strings/<locale>.json
// bundles with the same keys.
var stringsEN = map[string]string{
	"OK":      "OK",
	"ERROR":   "Error",
	"WARNING": "Warning",

	"INIT_WARNINGS_FOUND":                 "The following warnings were encountered loading the viewer",
	"INIT_WARNING_BING_API_KEY_REQD":      "A Bing Maps API key is required. Sign up for an API key at http://www.bingmapsportal.com/",
	"INIT_WARNING_BING_UNKNOWN_LAYER":     "Unknown bing maps layer type {type}. This layer was skipped",
	"INIT_WARNING_UNSUPPORTED_GOOGLE_MAPS": "This viewer does not support Google Maps base layers",
	"INIT_WARNING_NO_CONTEXT_MENU":        "Could not find the context menu configuration. Right-clicking the map will show an empty context menu. If you are loading from a Flexible Layout, it must have a container named '{containerName}'",

	"UNKNOWN_WIDGET":            "This button references an unknown or unsupported widget: {widget}",
	"UNKNOWN_COMMAND_REFERENCE": "This button references an unknown or unsupported command: {command}",

	"INIT_ERROR_TITLE":                 "An error occurred during startup",
	"INIT_ERROR_UNKNOWN_RESOURCE_TYPE": "Unknown or unsupported resource type for resource: {resourceId}",
	"INIT_ERROR_MISSING_RESOURCE_PARAM": "No resource parameter found. This viewer requires this parameter to be set and it must refer to a valid Web Layout or Application Definition",
	"INIT_ERROR_UNSUPPORTED_COORD_SYS": "The Map Definition {mapDefinition} uses a coordinate system that does not resolve to a valid EPSG code and cannot be loaded in this viewer",
	"INIT_ERROR_UNREGISTERED_EPSG_CODE": "The Map Definition {mapDefinition} uses a coordinate system that resolves to EPSG:{epsg}, but no projection for this EPSG code has been registered",
	"INIT_ERROR_EXPIRED_SESSION":       "The session id given has expired: {sessionId}",
	"INIT_ERROR_RESOURCE_NOT_FOUND":    "Attempted to load the following resource, but it was not found: {resourceId}",

	"SESSION_EXPIRED":          "Session Expired",
	"SESSION_EXPIRED_DETAILED": "Your current map server session has expired",

	"EXTERNAL_BASE_LAYERS": "External Base Layers",
	"MENU_TASKS":           "Tasks",
	"LOADING_MSG":          "Loading ...",
	"NO_SELECTED_FEATURES": "No selected features",

	"FEATURE_TOOLTIP_URL_HELP_TEXT": "Click for more information",

	"DIGITIZE_POINT_PROMPT":      "Click to finish and draw a point at this location. Press ESC to cancel",
	"DIGITIZE_LINE_PROMPT":       "Click to set this position as the start. Click again to finish the line at this position. Press ESC to cancel",
	"DIGITIZE_LINESTRING_PROMPT": "Click to set this position as the start. Click again to add a vertex at this position. Double click to finish. Press ESC to cancel",
	"DIGITIZE_CIRCLE_PROMPT":     "Click to set this position as the center. Move out to the desired radius and click again to finish. Press ESC to cancel",
	"DIGITIZE_RECT_PROMPT":       "Click to set this position as one corner. Click again to finish and set this position as the other corner. Press ESC to cancel",
	"DIGITIZE_POLYGON_PROMPT":    "Click to set this position as the start. Click again to add a vertex at this position. Double click to finish and close the polygon. Press ESC to cancel",
}
