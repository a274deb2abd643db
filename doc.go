// Package cinekit 是一个电影混合推荐核心（Cinema Recommender Kit）。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Rank → ReRank → PostProcess）
// - 训练/服务分离: 模型 Fit 后不可变，服务路径纯只读、可并发共享
// - 可解释: 打分节点写入完整的分数分解（Candidate），解释层只读它，不回查模型
package cinekit

import "github.com/reelsense/cinekit/pipeline"

// 轻量 facade：便于用户直接 import "cinekit" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)
