package httpHandler

import "community-server/apperr"

var errInvalidBody = apperr.Validation(map[string]string{"body": "Invalid request body."})
