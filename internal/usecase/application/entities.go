package application

import (
	"microlend/internal/domain/application"

	"github.com/ethereum/go-ethereum/common"
)

const (
	SequenceSubmit  = "submit-application"
	SequenceApprove = "approve-application"
	SequenceReject  = "reject-application"

	StepPhase1      = "submit-phase-1"
	StepResolveID   = "resolve-application-id"
	StepPhase2      = "submit-phase-2"
	StepApprove     = "approve-application"
	StepReadApprove = "read-approved-application"
	StepAddLoan     = "add-loan"
	StepReject      = "reject-application"
)

type SubmitInput struct {
	Personal application.Personal
	Business application.Business
}

type SubmitResult struct {
	RunID         string       `json:"run_id"`
	ApplicationID uint64       `json:"application_id"`
	Phase1Tx      *common.Hash `json:"phase1_tx"`
	Phase2Tx      *common.Hash `json:"phase2_tx"`
}

type ApproveInput struct {
	ApplicationID uint64
	PhotoURL      string
}

type ApproveResult struct {
	RunID         string `json:"run_id"`
	ApplicationID uint64 `json:"application_id"`
	// LoanID is 0 when the confirmed receipt did not name the new loan.
	LoanID    uint64       `json:"loan_id"`
	ApproveTx *common.Hash `json:"approve_tx"`
	AddLoanTx *common.Hash `json:"add_loan_tx"`
}

type RejectResult struct {
	RunID         string       `json:"run_id"`
	ApplicationID uint64       `json:"application_id"`
	RejectTx      *common.Hash `json:"reject_tx"`
}
