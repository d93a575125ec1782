package clients

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// kycSBTABI covers the registry methods this package calls.
const kycSBTABI = `[
  {"type":"function","name":"getKycInfo","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"ensName","type":"string"},{"name":"level","type":"uint8"},{"name":"status","type":"uint8"},{"name":"createTime","type":"uint256"}]},
  {"type":"function","name":"isHuman","stateMutability":"view",
   "inputs":[{"name":"account","type":"address"}],
   "outputs":[{"name":"","type":"bool"},{"name":"","type":"uint8"}]},
  {"type":"function","name":"getTotalFee","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"registrationFee","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"ensFee","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"minNameLength","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"suffix","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"validityPeriod","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"owner","stateMutability":"view",
   "inputs":[],"outputs":[{"name":"","type":"address"}]},
  {"type":"function","name":"isEnsNameApproved","stateMutability":"view",
   "inputs":[{"name":"user","type":"address"},{"name":"ensName","type":"string"}],
   "outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"requestKyc","stateMutability":"payable",
   "inputs":[{"name":"ensName","type":"string"},{"name":"level","type":"uint8"}],"outputs":[]},
  {"type":"function","name":"revokeKyc","stateMutability":"nonpayable",
   "inputs":[{"name":"user","type":"address"}],"outputs":[]},
  {"type":"function","name":"restoreKyc","stateMutability":"nonpayable",
   "inputs":[{"name":"user","type":"address"}],"outputs":[]},
  {"type":"function","name":"approveKyc","stateMutability":"nonpayable",
   "inputs":[{"name":"user","type":"address"},{"name":"level","type":"uint8"}],"outputs":[]},
  {"type":"function","name":"approveEnsName","stateMutability":"nonpayable",
   "inputs":[{"name":"user","type":"address"},{"name":"ensName","type":"string"}],"outputs":[]},
  {"type":"function","name":"setRegistrationFee","stateMutability":"nonpayable",
   "inputs":[{"name":"newFee","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setEnsFee","stateMutability":"nonpayable",
   "inputs":[{"name":"newFee","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setMinNameLength","stateMutability":"nonpayable",
   "inputs":[{"name":"newLength","type":"uint256"}],"outputs":[]},
  {"type":"function","name":"setSuffix","stateMutability":"nonpayable",
   "inputs":[{"name":"newSuffix","type":"string"}],"outputs":[]},
  {"type":"function","name":"setENSAndResolver","stateMutability":"nonpayable",
   "inputs":[{"name":"_ens","type":"address"},{"name":"_resolver","type":"address"}],"outputs":[]},
  {"type":"function","name":"withdrawFees","stateMutability":"nonpayable",
   "inputs":[],"outputs":[]},
  {"type":"function","name":"transferOwnership","stateMutability":"nonpayable",
   "inputs":[{"name":"newOwner","type":"address"}],"outputs":[]}
]`

var parsedKycSBTABI = mustParseABI(kycSBTABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// KycSBTABI returns the parsed registry ABI.
func KycSBTABI() abi.ABI {
	return parsedKycSBTABI
}
