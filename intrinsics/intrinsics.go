// Package intrinsics provides the CloudFormation intrinsic functions used by
// monitoring stacks.
//
// Dashboard and insight rule bodies are rendered as Fn::Sub so that the
// names they reference can be parameters or attributes of other resources:
//
//	Sub{"{\"widgets\":[...\"${MyAlb.LoadBalancerFullName}\"...]}"}
//	Ref{"Dashboard"} → {"Ref": "Dashboard"}
//
// Pseudo-parameters:
//
//	AWS_REGION, AWS_ACCOUNT_ID, AWS_STACK_NAME, etc.
package intrinsics

import (
	"github.com/lex00/cloudformation-schema-go/intrinsics"
)

// Re-export the intrinsic types of the shared schema package.
type (
	// Ref represents a CloudFormation Ref intrinsic function.
	Ref = intrinsics.Ref

	// Sub represents a CloudFormation Fn::Sub intrinsic function.
	Sub = intrinsics.Sub
)
