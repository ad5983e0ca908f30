package appidentityassets

import _ "embed"

// YAML is the embedded copy of `.fulmen/app.yaml` used when the binary runs
// outside a checkout. Keep both files identical.
//
//go:embed app.yaml
var YAML []byte
