package config

import "github.com/spf13/viper"

// QCPolicy QC策略快照：每个请求读取一次，请求内不变。
// 引擎不缓存快照，两次请求之间允许策略变化。
type QCPolicy struct {
	RequiredBatchTypes []string
	FailureBlocksBatch bool
}

// QCRequired 批次类型是否强制QC
func (p QCPolicy) QCRequired(batchType string) bool {
	for _, t := range p.RequiredBatchTypes {
		if t == batchType {
			return true
		}
	}
	return false
}

// PolicyProvider QC策略提供者
type PolicyProvider interface {
	QCPolicy() QCPolicy
}

// ViperPolicyProvider 从viper实时读取策略（外部可在运行中改写配置）
type ViperPolicyProvider struct {
	v *viper.Viper
}

func NewViperPolicyProvider(v *viper.Viper) *ViperPolicyProvider {
	return &ViperPolicyProvider{v: v}
}

func (p *ViperPolicyProvider) QCPolicy() QCPolicy {
	return QCPolicy{
		RequiredBatchTypes: p.v.GetStringSlice("lims.qc_required_batch_types"),
		FailureBlocksBatch: p.v.GetBool("lims.qc_failure_blocks_batch"),
	}
}

// StaticPolicyProvider 固定策略（测试用）
type StaticPolicyProvider struct {
	Policy QCPolicy
}

func (p *StaticPolicyProvider) QCPolicy() QCPolicy {
	return p.Policy
}
