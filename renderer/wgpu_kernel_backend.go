package renderer

import (
	"errors"
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/bloom-go/effect/kernel"
	"github.com/Carmen-Shannon/bloom-go/effect/target"
)

// fragmentEntryPoints maps each pass variant onto its WGSL fragment entry
// point, indexed by the pass ordinal.
var fragmentEntryPoints = [kernel.PassCount]string{
	"fs_prefilter",
	"fs_prefilter_anti_flicker",
	"fs_downsample_first",
	"fs_downsample_first_anti_flicker",
	"fs_downsample",
	"fs_combine_lq",
	"fs_combine_hq",
	"fs_composite_lq",
	"fs_composite_hq",
}

// pipelineKey identifies a cached render pipeline. Pipelines are specialized
// per destination format because the color target state is baked in: the
// working buffers, the swapchain, and constrained-mode temporaries all differ.
type pipelineKey struct {
	pass   kernel.Pass
	format wgpu.TextureFormat
}

// wgpuKernel is the WebGPU implementation of the filter-kernel capability.
// All nine pass variants share one shader module, one bind group layout, and
// one uniform buffer; render pipelines are created lazily per destination
// format and cached for the lifetime of the kernel.
type wgpuKernel struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	module     *wgpu.ShaderModule
	bindLayout *wgpu.BindGroupLayout
	pipeLayout *wgpu.PipelineLayout
	sampler    *wgpu.Sampler
	uniformBuf *wgpu.Buffer

	pipelines map[pipelineKey]*wgpu.RenderPipeline

	params GPUBloomParams
	base   target.Target
}

var _ kernel.Kernel = &wgpuKernel{}

func newWGPUKernel(device *wgpu.Device, queue *wgpu.Queue) (kernel.Kernel, error) {
	module, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: "Bloom Shader",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: GPUBloomShaderSource,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bloom shader module: %w", err)
	}

	k := &wgpuKernel{
		device:    device,
		queue:     queue,
		module:    module,
		pipelines: make(map[pipelineKey]*wgpu.RenderPipeline),
	}

	k.bindLayout, err = device.CreateBindGroupLayout(&wgpu.BindGroupLayoutDescriptor{
		Label: "Bloom Bind Group Layout",
		Entries: []wgpu.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: wgpu.ShaderStageFragment,
				Sampler: wgpu.SamplerBindingLayout{
					Type: wgpu.SamplerBindingTypeFiltering,
				},
			},
			{
				Binding:    1,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: wgpu.ShaderStageFragment,
				Texture: wgpu.TextureBindingLayout{
					SampleType:    wgpu.TextureSampleTypeFloat,
					ViewDimension: wgpu.TextureViewDimension2D,
				},
			},
			{
				Binding:    3,
				Visibility: wgpu.ShaderStageFragment,
				Buffer: wgpu.BufferBindingLayout{
					Type:           wgpu.BufferBindingTypeUniform,
					MinBindingSize: uint64(k.params.Size()),
				},
			},
		},
	})
	if err != nil {
		k.destroy()
		return nil, fmt.Errorf("failed to create bloom bind group layout: %w", err)
	}

	k.pipeLayout, err = device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            "Bloom Pipeline Layout",
		BindGroupLayouts: []*wgpu.BindGroupLayout{k.bindLayout},
	})
	if err != nil {
		k.destroy()
		return nil, fmt.Errorf("failed to create bloom pipeline layout: %w", err)
	}

	// Clamp-to-edge keeps the wide-tap filters from wrapping bright content
	// across image borders.
	k.sampler, err = device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         "Bloom Sampler",
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		MaxAnisotropy: 1,
	})
	if err != nil {
		k.destroy()
		return nil, fmt.Errorf("failed to create bloom sampler: %w", err)
	}

	k.uniformBuf, err = device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "Bloom Params Buffer",
		Size:  uint64(k.params.Size()),
		Usage: wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		k.destroy()
		return nil, fmt.Errorf("failed to create bloom uniform buffer: %w", err)
	}

	return k, nil
}

func (k *wgpuKernel) SetFloat(name string, value float32) {
	switch name {
	case kernel.ParamThreshold:
		k.params.Threshold = value
	case kernel.ParamSampleScale:
		k.params.SampleScale = value
	case kernel.ParamPrefilterOffs:
		k.params.PrefilterOffs = value
	case kernel.ParamIntensity:
		k.params.Intensity = value
	}
}

func (k *wgpuKernel) SetVec3(name string, value [3]float32) {
	if name == kernel.ParamCurve {
		k.params.Curve = value
	}
}

func (k *wgpuKernel) SetTexture(name string, t target.Target) {
	if name == kernel.ParamBaseTex {
		k.base = t
	}
}

func (k *wgpuKernel) Run(src, dst target.Target, pass kernel.Pass) error {
	if pass < 0 || int(pass) >= kernel.PassCount {
		return fmt.Errorf("unknown pass %d", pass)
	}
	srcBind, ok := src.(textureBinding)
	if !ok {
		return errors.New("source target was not created by this renderer")
	}
	dstBind, ok := dst.(textureBinding)
	if !ok {
		return errors.New("destination target was not created by this renderer")
	}

	// The combine and composite passes blend in the staged base image; the
	// other passes never sample binding 2, but the layout still requires a
	// view there, so the source doubles as a placeholder.
	baseView := srcBind.textureView()
	if k.base != nil {
		baseBind, baseOk := k.base.(textureBinding)
		if !baseOk {
			return errors.New("base target was not created by this renderer")
		}
		baseView = baseBind.textureView()
	}

	k.params.Texel = [2]float32{1 / float32(src.Width()), 1 / float32(src.Height())}
	k.queue.WriteBuffer(k.uniformBuf, 0, k.params.Marshal())

	p, err := k.pipeline(pass, dstBind.textureFormat())
	if err != nil {
		return err
	}

	bindGroup, err := k.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "Bloom Bind Group",
		Layout: k.bindLayout,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Sampler: k.sampler},
			{Binding: 1, TextureView: srcBind.textureView()},
			{Binding: 2, TextureView: baseView},
			{Binding: 3, Buffer: k.uniformBuf, Offset: 0, Size: wgpu.WholeSize},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bloom bind group: %w", err)
	}
	defer bindGroup.Release()

	encoder, err := k.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("failed to create bloom command encoder: %w", err)
	}
	defer encoder.Release()

	renderPass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:    dstBind.textureView(),
				LoadOp:  wgpu.LoadOpClear,
				StoreOp: wgpu.StoreOpStore,
				ClearValue: wgpu.Color{
					R: 0, G: 0, B: 0, A: 1,
				},
			},
		},
	})
	renderPass.SetPipeline(p)
	renderPass.SetBindGroup(0, bindGroup, nil)
	renderPass.Draw(3, 1, 0, 0)
	renderPass.End()

	commandBuffer, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("failed to finish bloom command encoder: %w", err)
	}
	defer commandBuffer.Release()

	k.queue.Submit(commandBuffer)

	return nil
}

// pipeline returns the cached render pipeline for a pass and destination
// format, creating it on first use.
func (k *wgpuKernel) pipeline(pass kernel.Pass, format wgpu.TextureFormat) (*wgpu.RenderPipeline, error) {
	key := pipelineKey{pass: pass, format: format}
	if p, ok := k.pipelines[key]; ok {
		return p, nil
	}

	created, err := k.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
		Label:  pass.String() + " Render Pipeline",
		Layout: k.pipeLayout,
		Vertex: wgpu.VertexState{
			Module:     k.module,
			EntryPoint: "vs_fullscreen",
		},
		Fragment: &wgpu.FragmentState{
			Module:     k.module,
			EntryPoint: fragmentEntryPoints[pass],
			Targets: []wgpu.ColorTargetState{
				{
					Format:    format,
					WriteMask: wgpu.ColorWriteMaskAll,
				},
			},
		},
		Primitive: wgpu.PrimitiveState{
			Topology:  wgpu.PrimitiveTopologyTriangleList,
			FrontFace: wgpu.FrontFaceCCW,
			CullMode:  wgpu.CullModeNone,
		},
		Multisample: wgpu.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s pipeline: %w", pass, err)
	}

	k.pipelines[key] = created
	return created, nil
}

func (k *wgpuKernel) destroy() {
	for key, p := range k.pipelines {
		p.Release()
		delete(k.pipelines, key)
	}
	if k.uniformBuf != nil {
		k.uniformBuf.Release()
		k.uniformBuf = nil
	}
	if k.sampler != nil {
		k.sampler.Release()
		k.sampler = nil
	}
	if k.pipeLayout != nil {
		k.pipeLayout.Release()
		k.pipeLayout = nil
	}
	if k.bindLayout != nil {
		k.bindLayout.Release()
		k.bindLayout = nil
	}
	if k.module != nil {
		k.module.Release()
		k.module = nil
	}
}
