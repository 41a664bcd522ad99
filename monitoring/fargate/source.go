// Package fargate provides metric catalogs and dashboard segments for ECS
// Fargate services, optionally fronted by an Application Load Balancer.
//
// Resources are identified by their fully-qualified names. A name may be a
// literal ("app/my-alb/50dc6c495c0c9188") or a CloudFormation substitution
// placeholder ("${MyAlb.LoadBalancerFullName}") resolved at deploy time.
package fargate

import (
	"github.com/lex00/wetwire-monitoring-go/metrics"
)

const serviceRequiredError = "exactly one of PatternService or Service must be set"

// PatternService references the parts of an ALB-fronted Fargate service
// created by a load balanced service pattern.
type PatternService struct {
	ClusterName          string
	ServiceName          string
	LoadBalancerFullName string
	TargetGroupFullName  string
}

// ServiceRef identifies a Fargate service.
type ServiceRef struct {
	ClusterName string
	ServiceName string
}

// LoadBalancerRef identifies an Application Load Balancer and the target
// group the service is registered in.
type LoadBalancerRef struct {
	FullName            string
	TargetGroupFullName string
}

// AlbFargateService is a pre-built composite of a service and its load balancer.
type AlbFargateService struct {
	Service      ServiceRef
	LoadBalancer LoadBalancerRef
}

// ServiceSource is the resolved reference to the monitored service. It is
// either a *PatternService or an *AlbFargateService; no other
// implementations exist.
type ServiceSource interface {
	service() ServiceRef
	loadBalancer() LoadBalancerRef
}

func (p *PatternService) service() ServiceRef {
	return ServiceRef{ClusterName: p.ClusterName, ServiceName: p.ServiceName}
}

func (p *PatternService) loadBalancer() LoadBalancerRef {
	return LoadBalancerRef{FullName: p.LoadBalancerFullName, TargetGroupFullName: p.TargetGroupFullName}
}

func (s *AlbFargateService) service() ServiceRef { return s.Service }

func (s *AlbFargateService) loadBalancer() LoadBalancerRef { return s.LoadBalancer }

// SourceOf converts the two optional references carried by props into a
// ServiceSource. Exactly one of them must be non-nil.
func SourceOf(pattern *PatternService, service *AlbFargateService) (ServiceSource, error) {
	switch {
	case pattern != nil && service != nil:
		return nil, metrics.NewConfigurationError("alb fargate monitoring", "%s, got both", serviceRequiredError)
	case pattern != nil:
		return pattern, nil
	case service != nil:
		return service, nil
	default:
		return nil, metrics.NewConfigurationError("alb fargate monitoring", "%s, got neither", serviceRequiredError)
	}
}
