/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloudglue

import "log"

/**
Verbose logs if not nil
*/
var verbose *log.Logger

/**
Use this function to trace context creation, including decisions of post processors.
Returns previous logger.
*/

func Verbose(log *log.Logger) (prev *log.Logger) {
	prev, verbose = verbose, log
	return
}
