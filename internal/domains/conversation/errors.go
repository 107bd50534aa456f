package conversation

import "github.com/xpanvictor/parley/pkg/utils"

var errEmptyAnswer = utils.XError{Reason: "assistant returned no answer"}.ToError()
