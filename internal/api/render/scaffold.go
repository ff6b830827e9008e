package render

import (
	"encoding/json"
	"fmt"
)

// signalScaffold declares the completion-signal triplet and installs the
// error handler and console interceptor. It must be the first script in
// every generated document so that even a library load failure is
// observable from the orchestrating side.
const signalScaffold = `<script>
window.renderComplete = false;
window.renderError = null;
window.consoleMessages = [];
(function () {
  var wrap = function (level, original) {
    return function () {
      var parts = [];
      for (var i = 0; i < arguments.length; i++) { parts.push(String(arguments[i])); }
      window.consoleMessages.push(level + ": " + parts.join(" "));
      if (original) { original.apply(console, arguments); }
    };
  };
  console.log = wrap("log", console.log);
  console.warn = wrap("warn", console.warn);
  console.error = wrap("error", console.error);
})();
window.signalError = function (message, details) {
  if (!window.renderError) {
    window.renderError = { message: String(message), details: details ? String(details) : "" };
  }
  window.renderComplete = true;
};
window.signalDone = function () { window.renderComplete = true; };
window.onerror = function (message, source, line, column) {
  window.signalError(message, source + ":" + line + ":" + column);
  return true;
};
</script>`

// embedJSON serializes v for inline embedding in a generated document.
// encoding/json escapes '<', '>' and '&' to \u-sequences, so the payload
// can never be parsed as markup.
func embedJSON(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("serializing document data: %w", err)
	}
	return string(b), nil
}

// jsString renders s as a double-quoted JS string literal, with the same
// angle-bracket neutralization as embedJSON.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
