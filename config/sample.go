package config

// Sample is the stack file written by `wetwire-monitoring init`.
const Sample = `description: API service monitoring

dashboard:
  name: api-service
  title: API service
  durationRange: 8h
  periodOverride: auto

metricDefaults:
  namespace: ApiService
  period: 1m

parameters:
  - name: ClusterName
    description: ECS cluster running the service
  - name: EmfLogGroupName
    description: Log group receiving embedded metric format events
  - name: AppLogGroupName
    description: Application log group

services:
  - title: API
    service:
      clusterName: ${ClusterName}
      serviceName: ${Service.Name}
      loadBalancerFullName: ${LoadBalancer.LoadBalancerFullName}
      targetGroupFullName: ${TargetGroup.TargetGroupFullName}
    cpuUtilization:
      annotations:
        - value: 80
          label: High CPU
    requests5xxErrors:
      color: "#d62728"

insightRules:
  emfLogGroupName: ${EmfLogGroupName}
  graph: true

queries:
  applicationLogGroupName: ${AppLogGroupName}
  serviceLogGroupName: ${EmfLogGroupName}
`
