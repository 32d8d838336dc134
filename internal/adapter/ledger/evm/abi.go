package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const loanRegistryABI = `[
{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"borrowerCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"totalLoansValue","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getName","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"getLocation","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"getBusiness","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"getStory","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"getPhoto","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"requestedAmounts","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"fundedAmounts","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"isActive","stateMutability":"view","inputs":[{"name":"","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"totalLent","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"impactPoints","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"badgeLevel","stateMutability":"view","inputs":[{"name":"","type":"address"}],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"getBadgeName","stateMutability":"view","inputs":[{"name":"_b","type":"uint8"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"lend","stateMutability":"nonpayable","inputs":[{"name":"_id","type":"uint256"},{"name":"_amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"addBorrower","stateMutability":"nonpayable","inputs":[{"name":"_name","type":"string"},{"name":"_location","type":"string"},{"name":"_business","type":"string"},{"name":"_story","type":"string"},{"name":"_photo","type":"string"},{"name":"_amount","type":"uint256"},{"name":"_token","type":"address"}],"outputs":[]},
{"type":"event","name":"BorrowerCreated","anonymous":false,"inputs":[{"name":"id","type":"uint256","indexed":true}]}
]`

const applicationRegistryABI = `[
{"type":"function","name":"owner","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"applicationCount","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getApplicant","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"getName","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"getEmail","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"getPhone","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"getLocation","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"getBusiness","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"getStory","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"getAmount","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getTimestamp","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"getStatus","stateMutability":"view","inputs":[{"name":"_id","type":"uint256"}],"outputs":[{"name":"","type":"uint8"}]},
{"type":"function","name":"apply1","stateMutability":"nonpayable","inputs":[{"name":"_name","type":"string"},{"name":"_email","type":"string"},{"name":"_phone","type":"string"},{"name":"_location","type":"string"}],"outputs":[]},
{"type":"function","name":"apply2","stateMutability":"nonpayable","inputs":[{"name":"_business","type":"string"},{"name":"_story","type":"string"},{"name":"_amount","type":"uint256"}],"outputs":[]},
{"type":"function","name":"approveApplication","stateMutability":"nonpayable","inputs":[{"name":"_appId","type":"uint256"}],"outputs":[]},
{"type":"function","name":"rejectApplication","stateMutability":"nonpayable","inputs":[{"name":"_appId","type":"uint256"}],"outputs":[]}
]`

const erc20ABI = `[
{"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const routerABI = `[
{"type":"function","name":"swapExactETHForTokens","stateMutability":"payable","inputs":[{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
{"type":"function","name":"swapExactTokensForETH","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]},
{"type":"function","name":"swapExactTokensForTokens","stateMutability":"nonpayable","inputs":[{"name":"amountIn","type":"uint256"},{"name":"amountOutMin","type":"uint256"},{"name":"path","type":"address[]"},{"name":"to","type":"address"},{"name":"deadline","type":"uint256"}],"outputs":[{"name":"amounts","type":"uint256[]"}]}
]`

var (
	loanABI   = mustParse(loanRegistryABI)
	appABI    = mustParse(applicationRegistryABI)
	tokenABI  = mustParse(erc20ABI)
	swapABI   = mustParse(routerABI)
	createdID = loanABI.Events["BorrowerCreated"].ID
)

func mustParse(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}
