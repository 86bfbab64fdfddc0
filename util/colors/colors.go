// Copyright 2021-2022, Offchain Labs, Inc.
// For license information, see https://github.com/nitro/blob/master/LICENSE

package colors

var Red = "\033[31;1m"

var Clear = "\033[0;0m"
