// Package redirect
// Author: momentics <momentics@gmail.com>
//
// Flow-controlled byte-copy pump between two descriptors, built from
// two connection handles and the reactor dispatch loop. The pump owns
// its handles and installs its own callbacks; owners only observe the
// condensed notification set (data ready, data written, input closed,
// input error, output error).
package redirect
