package escrow

import "slotpass/utils"

var (
	ErrEscrowNotFound    = utils.NotFoundError("ESCROW_NOT_FOUND", "Escrow not found")
	ErrNotReleasable     = utils.ConflictError("ESCROW_NOT_RELEASABLE", "Escrow is not in a releasable state")
	ErrNotBlockable      = utils.ConflictError("ESCROW_NOT_BLOCKABLE", "Escrow is not in a blockable state")
	ErrNotRefundable     = utils.ConflictError("ESCROW_NOT_REFUNDABLE", "Escrow is not in a refundable state")
	ErrDisputeOpen       = utils.ConflictError("DISPUTE_OPEN", "Escrow has an open dispute")
	ErrPaymentNotCharged = utils.ConflictError("PAYMENT_NOT_CHARGED", "No captured payment to refund against")
)
