// Package archtest provides canonical shape-only parameter mappings for
// every architecture family, for use in tests.
package archtest

import (
	"strconv"

	"github.com/born-ml/archid/internal/arch"
	"github.com/born-ml/archid/internal/statedict"
)

// Conv returns a 3x3 conv weight descriptor [out, in, 3, 3].
func Conv(out, in int) statedict.TensorInfo {
	return statedict.NewTensorInfo(statedict.F32, out, in, 3, 3)
}

// Vec returns a rank-1 descriptor such as a bias or norm weight.
func Vec(n int) statedict.TensorInfo {
	return statedict.NewTensorInfo(statedict.F32, n)
}

// Scalar returns a rank-0 descriptor, as written for profiler counters.
func Scalar() statedict.TensorInfo {
	return statedict.NewTensorInfo(statedict.F64)
}

// Fixture returns a minimal mapping that a given family's signature and
// constructor both accept. Each call returns a fresh mapping.
func Fixture(tag arch.Tag) statedict.StateDict {
	switch tag {
	case arch.SRVGGCompact:
		// x4, 3 channels, 64 features, num_conv 2.
		return statedict.StateDict{
			"body.0.weight": Conv(64, 3),
			"body.0.bias":   Vec(64),
			"body.1.weight": Vec(64),
			"body.2.weight": Conv(64, 64),
			"body.3.weight": Vec(64),
			"body.4.weight": Conv(64, 64),
			"body.5.weight": Vec(64),
			"body.6.weight": Conv(48, 64),
		}
	case arch.SPSR:
		return statedict.StateDict{
			"model.0.weight":                    Conv(64, 3),
			"model.1.sub.0.RDB1.conv1.0.weight": Conv(32, 64),
			"model.1.sub.1.RDB1.conv1.0.weight": Conv(32, 64),
			"model.3.weight":                    Conv(64, 64),
			"model.6.weight":                    Conv(64, 64),
			"model.8.weight":                    Conv(64, 64),
			"b_fea_conv.0.weight":               Conv(64, 3),
			"f_HR_conv0.0.weight":               Conv(64, 64),
			"f_HR_conv1.0.weight":               Conv(3, 64),
			"f_concat_conv.0.weight":            Conv(64, 128),
			"b_LR_conv.0.weight":                Conv(64, 64),
		}
	case arch.SwiftSRGAN:
		return statedict.StateDict{
			"model": statedict.StateDict{
				"initial.cnn.depthwise.weight":           statedict.NewTensorInfo(statedict.F32, 3, 1, 9, 9),
				"initial.cnn.pointwise.weight":           statedict.NewTensorInfo(statedict.F32, 64, 3, 1, 1),
				"residual.0.block1.cnn.depthwise.weight": statedict.NewTensorInfo(statedict.F32, 64, 1, 3, 3),
				"residual.1.block1.cnn.depthwise.weight": statedict.NewTensorInfo(statedict.F32, 64, 1, 3, 3),
				"upsampler.0.conv.depthwise.weight":      statedict.NewTensorInfo(statedict.F32, 64, 1, 3, 3),
				"upsampler.1.conv.depthwise.weight":      statedict.NewTensorInfo(statedict.F32, 64, 1, 3, 3),
				"final_conv.pointwise.weight":            statedict.NewTensorInfo(statedict.F32, 3, 64, 1, 1),
			},
		}
	case arch.HAT:
		sd := swinBase(180, 2)
		sd["layers.0.residual_group.blocks.0.conv_block.cab.0.weight"] = Conv(60, 180)
		sd["conv_before_upsample.0.weight"] = Conv(64, 180)
		sd["upsample.0.weight"] = Conv(256, 64)
		sd["upsample.2.weight"] = Conv(256, 64)
		sd["conv_last.weight"] = Conv(3, 64)
		return sd
	case arch.Swin2SR:
		sd := swinBase(180, 2)
		sd["patch_embed.proj.weight"] = Conv(180, 180)
		sd["conv_before_upsample.0.weight"] = Conv(64, 180)
		sd["upsample.0.weight"] = Conv(256, 64)
		sd["conv_last.weight"] = Conv(3, 64)
		return sd
	case arch.SwinIR:
		// Lightweight SwinIR: pixelshuffledirect x3.
		sd := swinBase(60, 4)
		sd["upsample.0.weight"] = Conv(27, 60)
		return sd
	case arch.GFPGAN:
		return statedict.StateDict{
			"conv_body_first.weight":              statedict.NewTensorInfo(statedict.F32, 32, 3, 1, 1),
			"toRGB.0.weight":                      statedict.NewTensorInfo(statedict.F32, 3, 512, 1, 1),
			"toRGB.1.weight":                      statedict.NewTensorInfo(statedict.F32, 3, 512, 1, 1),
			"stylegan_decoder.style_mlp.1.weight": statedict.NewTensorInfo(statedict.F32, 512, 512),
		}
	case arch.RestoreFormer:
		return statedict.StateDict{
			"encoder.conv_in.weight":              Conv(64, 3),
			"encoder.down.0.block.0.norm1.weight": Vec(64),
			"encoder.down.1.block.0.norm1.weight": Vec(64),
			"decoder.conv_out.weight":             Conv(3, 64),
		}
	case arch.CodeFormer:
		return statedict.StateDict{
			"encoder.blocks.0.weight":              Conv(64, 3),
			"quantize.embedding.weight":            statedict.NewTensorInfo(statedict.F32, 1024, 256),
			"ft_layers.0.self_attn.in_proj_weight": statedict.NewTensorInfo(statedict.F32, 1536, 512),
			"ft_layers.1.self_attn.in_proj_weight": statedict.NewTensorInfo(statedict.F32, 1536, 512),
			"position_emb":                         statedict.NewTensorInfo(statedict.F32, 256, 512),
		}
	case arch.LaMa:
		return statedict.StateDict{
			"model.model.1.bn_l.running_mean":  Vec(64),
			"model.model.1.ffc.convl2l.weight": statedict.NewTensorInfo(statedict.F32, 64, 4, 7, 7),
		}
	case arch.MAT:
		return statedict.StateDict{
			"synthesis.first_stage.conv_first.conv.resample_filter": statedict.NewTensorInfo(statedict.F32, 4, 4),
			"synthesis.first_stage.conv_first.conv.weight":          Conv(180, 4),
		}
	case arch.OmniSR:
		return statedict.StateDict{
			"total_ops":                  Scalar(),
			"total_params":               Scalar(),
			"residual_layer.0.total_ops": Scalar(),
			"residual_layer.1.total_ops": Scalar(),
			"input.weight":               Conv(64, 3),
			"up.0.weight":                Conv(12, 64),
		}
	case arch.ESRGAN:
		// Real-ESRGAN x2: pixel-unshuffled input, two upconvs.
		return statedict.StateDict{
			"conv_first.weight":        Conv(64, 12),
			"body.0.rdb1.conv1.weight": Conv(32, 64),
			"body.1.rdb1.conv1.weight": Conv(32, 64),
			"conv_body.weight":         Conv(64, 64),
			"conv_up1.weight":          Conv(64, 64),
			"conv_up2.weight":          Conv(64, 64),
			"conv_hr.weight":           Conv(64, 64),
			"conv_last.weight":         Conv(3, 64),
		}
	default:
		return statedict.StateDict{}
	}
}

// swinBase returns the layout shared by SwinIR-style models without an
// upsampler or the family-specific keys.
func swinBase(embed, groups int) statedict.StateDict {
	sd := statedict.StateDict{
		"conv_first.weight":                             Conv(embed, 3),
		"patch_embed.norm.weight":                       Vec(embed),
		"norm.weight":                                   Vec(embed),
		"conv_after_body.weight":                        Conv(embed, embed),
		"layers.0.residual_group.blocks.0.norm1.weight": Vec(embed),
	}
	for i := 1; i < groups; i++ {
		sd["layers."+strconv.Itoa(i)+".residual_group.blocks.0.norm1.weight"] = Vec(embed)
	}
	return sd
}

